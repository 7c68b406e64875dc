package catalog

import (
	"context"
	"database/sql"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

type PromotionRepository struct {
	db *sql.DB
}

func NewPromotionRepository(db *sql.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

func (r *PromotionRepository) List(ctx context.Context) ([]domain.Promotion, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, description, discount FROM promotions ORDER BY id`)
	if err != nil {
		return nil, postgres.Translate(err, "list promotions")
	}
	defer func() { _ = rows.Close() }()

	promotions := []domain.Promotion{}
	for rows.Next() {
		var p domain.Promotion
		if err := rows.Scan(&p.ID, &p.Description, &p.Discount); err != nil {
			return nil, postgres.Translate(err, "scan promotion")
		}
		promotions = append(promotions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "list promotions")
	}

	return promotions, nil
}

func (r *PromotionRepository) Create(ctx context.Context, p *domain.Promotion) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO promotions (description, discount) VALUES ($1, $2) RETURNING id
	`, p.Description, p.Discount).Scan(&p.ID)
	return postgres.Translate(err, "create promotion")
}
