//go:build integration

package tags_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
	"github.com/joao-fontenele/storefront/internal/tags"
	"github.com/joao-fontenele/storefront/internal/testutil"
)

func TestRepository_DeletingEntityDropsItsTags(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, testutil.SetupPostgres(ctx, t), 5)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	collections := catalog.NewCollectionRepository(db)
	products := catalog.NewProductRepository(db)
	repo := tags.NewRepository(db)

	kept := &domain.Collection{Title: "Beverages"}
	require.NoError(t, collections.Create(ctx, kept))
	empty := &domain.Collection{Title: "Seasonal"}
	require.NoError(t, collections.Create(ctx, empty))

	product := &domain.Product{
		Name:         "Cold Brew",
		Slug:         "cold-brew",
		Inventory:    10,
		UnitPrice:    decimal.RequireFromString("4.50"),
		CollectionID: kept.ID,
	}
	require.NoError(t, products.Create(ctx, product))

	_, err = repo.Attach(ctx, domain.EntityProduct, product.ID, "sale")
	require.NoError(t, err)
	_, err = repo.Attach(ctx, domain.EntityCollection, empty.ID, "sale")
	require.NoError(t, err)
	_, err = repo.Attach(ctx, domain.EntityCollection, kept.ID, "sale")
	require.NoError(t, err)

	require.NoError(t, products.Delete(ctx, product.ID))
	require.NoError(t, collections.Delete(ctx, empty.ID))

	var remaining int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tagged_items`).Scan(&remaining))
	assert.Equal(t, 1, remaining)

	left, err := repo.ListFor(ctx, domain.EntityCollection, kept.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "sale", left[0].Label)
}
