package carts

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

// Postgres' default names for the cart_items foreign keys.
const (
	cartFKey    = "cart_items_cart_id_fkey"
	productFKey = "cart_items_product_id_fkey"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	cart := &domain.Cart{ID: id, Items: []domain.CartItem{}}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO carts (id) VALUES ($1) RETURNING created_at`, id,
	).Scan(&cart.CreatedAt)
	if err != nil {
		return nil, postgres.Translate(err, "insert cart")
	}
	return cart, nil
}

// Get loads the cart with its items and current product prices. Totals are
// left to the caller.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	cart := &domain.Cart{ID: id}
	err := r.db.QueryRowContext(ctx, `SELECT created_at FROM carts WHERE id = $1`, id).Scan(&cart.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("cart %s not found", id)
	}
	if err != nil {
		return nil, postgres.Translate(err, "get cart")
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.quantity, p.id, p.name, p.unit_price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`, id)
	if err != nil {
		return nil, postgres.Translate(err, "list cart items")
	}
	defer func() { _ = rows.Close() }()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		item := domain.CartItem{CartID: id}
		if err := rows.Scan(&item.ID, &item.Quantity, &item.Product.ID, &item.Product.Name, &item.Product.UnitPrice); err != nil {
			return nil, postgres.Translate(err, "scan cart item")
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "iterate cart items")
	}

	return cart, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return postgres.Translate(err, "delete cart")
	}
	return expectOne(res, "cart %s not found", id)
}

// AddItem inserts the line or, when the product is already in the cart,
// adds to its quantity capped at the maximum.
func (r *Repository) AddItem(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*domain.CartItem, error) {
	item := &domain.CartItem{CartID: cartID}
	err := r.db.QueryRowContext(ctx, `
		WITH upserted AS (
			INSERT INTO cart_items (cart_id, product_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT ON CONSTRAINT cart_items_cart_product_key
			DO UPDATE SET quantity = LEAST(cart_items.quantity + EXCLUDED.quantity, $4)
			RETURNING id, product_id, quantity
		)
		SELECT u.id, u.quantity, p.id, p.name, p.unit_price
		FROM upserted u
		JOIN products p ON p.id = u.product_id`,
		cartID, productID, quantity, domain.MaxCartItemQuantity,
	).Scan(&item.ID, &item.Quantity, &item.Product.ID, &item.Product.Name, &item.Product.UnitPrice)
	switch {
	case postgres.IsConstraint(err, cartFKey):
		return nil, domain.NotFound("cart %s not found", cartID)
	case postgres.IsConstraint(err, productFKey):
		return nil, domain.NotFound("product %d not found", productID)
	case err != nil:
		return nil, postgres.Translate(err, "add cart item")
	}
	return item, nil
}

func (r *Repository) UpdateItemQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) (*domain.CartItem, error) {
	item := &domain.CartItem{CartID: cartID}
	err := r.db.QueryRowContext(ctx, `
		WITH updated AS (
			UPDATE cart_items SET quantity = $3
			WHERE id = $2 AND cart_id = $1
			RETURNING id, product_id, quantity
		)
		SELECT u.id, u.quantity, p.id, p.name, p.unit_price
		FROM updated u
		JOIN products p ON p.id = u.product_id`,
		cartID, itemID, quantity,
	).Scan(&item.ID, &item.Quantity, &item.Product.ID, &item.Product.Name, &item.Product.UnitPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("item %d not found in cart %s", itemID, cartID)
	}
	if err != nil {
		return nil, postgres.Translate(err, "update cart item")
	}
	return item, nil
}

func (r *Repository) RemoveItem(ctx context.Context, cartID uuid.UUID, itemID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return postgres.Translate(err, "remove cart item")
	}
	return expectOne(res, "item %d not found in cart %s", itemID, cartID)
}

func expectOne(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return postgres.Translate(err, "rows affected")
	}
	if n == 0 {
		return domain.NotFound(format, args...)
	}
	return nil
}
