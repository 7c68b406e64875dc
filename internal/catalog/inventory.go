package catalog

import (
	"context"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

// DefaultLowInventoryThreshold flags products with fewer units than this.
const DefaultLowInventoryThreshold = 10

// AdjustInventory adds delta (which may be negative) to a product's stock,
// refusing to take it below zero.
func (r *ProductRepository) AdjustInventory(ctx context.Context, id int64, delta int) (*domain.Product, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET inventory = inventory + $2, last_updated = NOW()
		WHERE id = $1 AND inventory + $2 >= 0
	`, id, delta)
	if err != nil {
		return nil, postgres.Translate(err, "adjust inventory")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, postgres.Translate(err, "adjust inventory")
	}

	if rowsAffected == 0 {
		exists, err := r.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.NotFound("product %d not found", id)
		}
		return nil, domain.InvalidState("insufficient inventory for product %d", id)
	}

	return r.Get(ctx, id)
}

func (r *ProductRepository) ListLowInventory(ctx context.Context, threshold int) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE p.inventory < $1
		ORDER BY p.inventory ASC, p.id ASC
	`, threshold)
	if err != nil {
		return nil, postgres.Translate(err, "list low inventory")
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, postgres.Translate(err, "scan product")
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "list low inventory")
	}

	return products, nil
}
