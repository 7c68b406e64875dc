package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

type CollectionRepository struct {
	db *sql.DB
}

func NewCollectionRepository(db *sql.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

const collectionSelect = `
	SELECT c.id, c.title, c.featured_product_id,
	       (SELECT COUNT(*) FROM products p WHERE p.collection_id = c.id)
	FROM collections c`

func scanCollection(row rowScanner) (*domain.Collection, error) {
	var (
		c        domain.Collection
		featured sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Title, &featured, &c.ProductCount); err != nil {
		return nil, err
	}
	if featured.Valid {
		c.FeaturedProductID = &featured.Int64
	}
	return &c, nil
}

func (r *CollectionRepository) List(ctx context.Context) ([]domain.Collection, error) {
	rows, err := r.db.QueryContext(ctx, collectionSelect+` ORDER BY c.title, c.id`)
	if err != nil {
		return nil, postgres.Translate(err, "list collections")
	}
	defer func() { _ = rows.Close() }()

	collections := []domain.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, postgres.Translate(err, "scan collection")
		}
		collections = append(collections, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "list collections")
	}

	return collections, nil
}

func (r *CollectionRepository) Get(ctx context.Context, id int64) (*domain.Collection, error) {
	c, err := scanCollection(r.db.QueryRowContext(ctx, collectionSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("collection %d not found", id)
		}
		return nil, postgres.Translate(err, "get collection")
	}
	return c, nil
}

func (r *CollectionRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM collections WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, postgres.Translate(err, "check collection")
	}
	return exists, nil
}

func (r *CollectionRepository) Create(ctx context.Context, c *domain.Collection) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO collections (title, featured_product_id)
		VALUES ($1, $2)
		RETURNING id
	`, c.Title, c.FeaturedProductID).Scan(&c.ID)
	if err != nil {
		return featuredRefError(err, "create collection")
	}
	c.ProductCount = 0
	return nil
}

func (r *CollectionRepository) Update(ctx context.Context, c *domain.Collection) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE collections SET title = $2, featured_product_id = $3
		WHERE id = $1
	`, c.ID, c.Title, c.FeaturedProductID)
	if err != nil {
		return featuredRefError(err, "update collection")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return postgres.Translate(err, "update collection")
	}
	if n == 0 {
		return domain.NotFound("collection %d not found", c.ID)
	}
	return nil
}

// Delete removes an empty collection.
func (r *CollectionRepository) Delete(ctx context.Context, id int64) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM products WHERE collection_id = $1
		`, id).Scan(&count); err != nil {
			return postgres.Translate(err, "count collection products")
		}
		if count > 0 {
			return domain.InvalidState("collection %d can't be deleted, it has %d products", id, count)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
		if err != nil {
			return postgres.Translate(err, "delete collection")
		}
		n, err := result.RowsAffected()
		if err != nil {
			return postgres.Translate(err, "delete collection")
		}
		if n == 0 {
			return domain.NotFound("collection %d not found", id)
		}
		return nil
	})
}

func featuredRefError(err error, op string) error {
	translated := postgres.Translate(err, op)
	if domain.KindOf(translated) == domain.KindInvalidState {
		return domain.InvalidArgument("featured product does not exist")
	}
	return translated
}
