package catalog

import (
	"context"
	"database/sql"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, name, description, date
		FROM reviews
		WHERE product_id = $1
		ORDER BY date DESC, id DESC
	`, productID)
	if err != nil {
		return nil, postgres.Translate(err, "list reviews")
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.Name, &rv.Description, &rv.Date); err != nil {
			return nil, postgres.Translate(err, "scan review")
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "list reviews")
	}

	return reviews, nil
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (product_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, date
	`, rv.ProductID, rv.Name, rv.Description).Scan(&rv.ID, &rv.Date)
	if err != nil {
		translated := postgres.Translate(err, "create review")
		if domain.KindOf(translated) == domain.KindInvalidState {
			return domain.NotFound("product %d not found", rv.ProductID)
		}
		return translated
	}
	return nil
}
