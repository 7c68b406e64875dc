package orders

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Materialize turns the cart into a pending order for customerID in one
// transaction: the cart row is locked, its lines are copied with the
// products' current prices and the cart is deleted. A cart that vanished
// since validation (a concurrent checkout won) yields NotFound.
func (r *OrderRepository) Materialize(ctx context.Context, cartID uuid.UUID, customerID int64) (*domain.Order, error) {
	order := &domain.Order{CustomerID: customerID}

	err := postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var locked uuid.UUID
		err := tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE id = $1 FOR UPDATE`, cartID).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("cart %s not found", cartID)
		}
		if err != nil {
			return postgres.Translate(err, "lock cart")
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO orders (customer_id, payment_status)
			VALUES ($1, $2)
			RETURNING id, placed_at`,
			customerID, domain.PaymentPending,
		).Scan(&order.ID, &order.PlacedAt)
		if err != nil {
			return postgres.Translate(err, "insert order")
		}
		order.PaymentStatus = domain.PaymentPending

		res, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			SELECT $1, ci.product_id, ci.quantity, p.unit_price
			FROM cart_items ci
			JOIN products p ON p.id = ci.product_id
			WHERE ci.cart_id = $2
			ORDER BY ci.id`,
			order.ID, cartID,
		)
		if err != nil {
			return postgres.Translate(err, "insert order items")
		}
		if n, err := res.RowsAffected(); err != nil {
			return postgres.Translate(err, "insert order items")
		} else if n == 0 {
			return domain.InvalidState("cart %s is empty", cartID)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
			return postgres.Translate(err, "delete cart")
		}

		items, err := loadItems(ctx, tx, []int64{order.ID})
		if err != nil {
			return err
		}
		order.Items = items[order.ID]
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, placed_at, payment_status
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.CustomerID, &order.PlacedAt, &order.PaymentStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("order %d not found", id)
	}
	if err != nil {
		return nil, postgres.Translate(err, "get order")
	}

	items, err := loadItems(ctx, r.db, []int64{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]
	return order, nil
}

// List returns orders newest first. A nil customerID lists every order.
func (r *OrderRepository) List(ctx context.Context, customerID *int64) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, placed_at, payment_status
		FROM orders
		WHERE $1::BIGINT IS NULL OR customer_id = $1
		ORDER BY placed_at DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, postgres.Translate(err, "list orders")
	}
	defer func() { _ = rows.Close() }()

	orders := []domain.Order{}
	var ids []int64
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.CustomerID, &order.PlacedAt, &order.PaymentStatus); err != nil {
			return nil, postgres.Translate(err, "scan order")
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "iterate orders")
	}

	if len(ids) == 0 {
		return orders, nil
	}

	items, err := loadItems(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Order, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET payment_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return nil, postgres.Translate(err, "update payment status")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, postgres.Translate(err, "update payment status")
	}
	if n == 0 {
		return nil, domain.NotFound("order %d not found", id)
	}

	return r.Get(ctx, id)
}

// DeletePending removes a pending order and its items. Orders whose payment
// already moved on are left alone.
func (r *OrderRepository) DeletePending(ctx context.Context, id int64) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var status domain.PaymentStatus
		err := tx.QueryRowContext(ctx, `SELECT payment_status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("order %d not found", id)
		}
		if err != nil {
			return postgres.Translate(err, "lock order")
		}

		if status != domain.PaymentPending {
			return domain.InvalidState("order %d has payment status %s and cannot be cancelled", id, status)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
			return postgres.Translate(err, "delete order")
		}
		return nil
	})
}

// loadItems fetches the lines of all given orders in one query.
func loadItems(ctx context.Context, db postgres.DBTX, orderIDs []int64) (map[int64][]domain.OrderItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT oi.order_id, oi.id, oi.quantity, oi.unit_price, p.id, p.name, p.unit_price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, postgres.Translate(err, "list order items")
	}
	defer func() { _ = rows.Close() }()

	items := make(map[int64][]domain.OrderItem, len(orderIDs))
	for _, id := range orderIDs {
		items[id] = []domain.OrderItem{}
	}
	for rows.Next() {
		var (
			orderID int64
			item    domain.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ID, &item.Quantity, &item.UnitPrice,
			&item.Product.ID, &item.Product.Name, &item.Product.UnitPrice); err != nil {
			return nil, postgres.Translate(err, "scan order item")
		}
		items[orderID] = append(items[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "iterate order items")
	}

	return items, nil
}
