package tags

import (
	"context"
	"database/sql"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListFor(ctx context.Context, kind domain.EntityKind, entityID int64) ([]domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.label
		FROM tagged_items ti
		JOIN tags t ON t.id = ti.tag_id
		WHERE ti.entity_kind = $1 AND ti.entity_id = $2
		ORDER BY t.label`, kind, entityID)
	if err != nil {
		return nil, postgres.Translate(err, "list tags")
	}
	defer func() { _ = rows.Close() }()

	tags := []domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Label); err != nil {
			return nil, postgres.Translate(err, "scan tag")
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "iterate tags")
	}
	return tags, nil
}

// Attach upserts the label and links it to the entity. Attaching an
// existing link is a no-op.
func (r *Repository) Attach(ctx context.Context, kind domain.EntityKind, entityID int64, label string) (*domain.Tag, error) {
	tag := &domain.Tag{Label: label}
	err := postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO tags (label) VALUES ($1)
			ON CONFLICT ON CONSTRAINT tags_label_key DO UPDATE SET label = EXCLUDED.label
			RETURNING id`, label,
		).Scan(&tag.ID)
		if err != nil {
			return postgres.Translate(err, "upsert tag")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO tagged_items (tag_id, entity_kind, entity_id)
			VALUES ($1, $2, $3)
			ON CONFLICT ON CONSTRAINT tagged_items_tag_entity_key DO NOTHING`,
			tag.ID, kind, entityID,
		)
		return postgres.Translate(err, "attach tag")
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (r *Repository) Detach(ctx context.Context, kind domain.EntityKind, entityID, tagID int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM tagged_items
		WHERE tag_id = $1 AND entity_kind = $2 AND entity_id = $3`,
		tagID, kind, entityID,
	)
	if err != nil {
		return postgres.Translate(err, "detach tag")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return postgres.Translate(err, "detach tag")
	}
	if n == 0 {
		return domain.NotFound("tag %d is not attached to %s %d", tagID, kind, entityID)
	}
	return nil
}
