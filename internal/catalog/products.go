package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

const productColumns = `
	p.id, p.name, p.slug, p.description, p.inventory, p.unit_price, p.collection_id, p.last_updated,
	COALESCE(ARRAY(SELECT pp.promotion_id FROM product_promotions pp WHERE pp.product_id = p.id ORDER BY pp.promotion_id), '{}')`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p      domain.Product
		promos pq.Int64Array
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Inventory, &p.UnitPrice,
		&p.CollectionID, &p.LastUpdated, &promos); err != nil {
		return nil, err
	}
	p.Promotions = []int64(promos)
	if p.Promotions == nil {
		p.Promotions = []int64{}
	}
	return &p, nil
}

// List returns one page of products matching q and the total match count.
func (r *ProductRepository) List(ctx context.Context, q ProductQuery) ([]domain.Product, int, error) {
	where, args := q.where()

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p `+where, args...).Scan(&count); err != nil {
		return nil, 0, postgres.Translate(err, "count products")
	}

	args = append(args, PageSize, q.offset())
	query := fmt.Sprintf(`SELECT %s FROM products p %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		productColumns, where, q.orderBy(), len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, postgres.Translate(err, "list products")
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, postgres.Translate(err, "scan product")
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, postgres.Translate(err, "list products")
	}

	return products, count, nil
}

func (r *ProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("product %d not found", id)
		}
		return nil, postgres.Translate(err, "get product")
	}
	return p, nil
}

func (r *ProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, postgres.Translate(err, "check product")
	}
	return exists, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, slug, description, inventory, unit_price, collection_id, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, last_updated
	`, p.Name, p.Slug, p.Description, p.Inventory, p.UnitPrice, p.CollectionID).Scan(&p.ID, &p.LastUpdated)
	if err != nil {
		return collectionRefError(err, p.CollectionID, "create product")
	}
	if p.Promotions == nil {
		p.Promotions = []int64{}
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, slug = $3, description = $4, inventory = $5, unit_price = $6,
		    collection_id = $7, last_updated = NOW()
		WHERE id = $1
		RETURNING last_updated
	`, p.ID, p.Name, p.Slug, p.Description, p.Inventory, p.UnitPrice, p.CollectionID).Scan(&p.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("product %d not found", p.ID)
		}
		return collectionRefError(err, p.CollectionID, "update product")
	}
	return nil
}

// Delete removes a product that no order item references.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var referenced bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id = $1)
		`, id).Scan(&referenced); err != nil {
			return postgres.Translate(err, "check order items")
		}
		if referenced {
			return domain.InvalidState("product %d can't be deleted, it is associated with order items", id)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return postgres.Translate(err, "delete product")
		}
		n, err := result.RowsAffected()
		if err != nil {
			return postgres.Translate(err, "delete product")
		}
		if n == 0 {
			return domain.NotFound("product %d not found", id)
		}
		return nil
	})
}

// SetPromotions replaces the product's promotions.
func (r *ProductRepository) SetPromotions(ctx context.Context, productID int64, promotionIDs []int64) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound("product %d not found", productID)
			}
			return postgres.Translate(err, "lock product")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM product_promotions WHERE product_id = $1`, productID); err != nil {
			return postgres.Translate(err, "clear promotions")
		}

		if len(promotionIDs) == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_promotions (product_id, promotion_id)
			SELECT $1, UNNEST($2::BIGINT[])
			ON CONFLICT DO NOTHING
		`, productID, pq.Array(promotionIDs))
		if err != nil {
			translated := postgres.Translate(err, "set promotions")
			if domain.KindOf(translated) == domain.KindInvalidState {
				return domain.InvalidArgument("unknown promotion in %v", promotionIDs)
			}
			return translated
		}

		_, err = tx.ExecContext(ctx, `UPDATE products SET last_updated = NOW() WHERE id = $1`, productID)
		return postgres.Translate(err, "touch product")
	})
}

func collectionRefError(err error, collectionID int64, op string) error {
	translated := postgres.Translate(err, op)
	if domain.KindOf(translated) == domain.KindInvalidState {
		return domain.InvalidArgument("collection %d does not exist", collectionID)
	}
	return translated
}
