//go:build integration

package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
	"github.com/joao-fontenele/storefront/internal/storage"
	"github.com/joao-fontenele/storefront/internal/testutil"
)

func TestImageService_Postgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, testutil.SetupPostgres(ctx, t), 5)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	collection := &domain.Collection{Title: "Bakery"}
	require.NoError(t, NewCollectionRepository(db).Create(ctx, collection))
	products := NewProductRepository(db)
	product := &domain.Product{
		Name:         "Sourdough",
		Slug:         "sourdough",
		Inventory:    5,
		UnitPrice:    decimal.RequireFromString("6.00"),
		CollectionID: collection.ID,
	}
	require.NoError(t, products.Create(ctx, product))

	blobs, err := storage.NewFileStore(t.TempDir(), "/media")
	require.NoError(t, err)
	images := NewImageRepository(db)
	svc := NewImageService(products, images, blobs, slog.New(slog.NewTextHandler(io.Discard, nil)))

	first, err := svc.Upload(ctx, product.ID, pngBytes(256))
	require.NoError(t, err)
	second, err := svc.Upload(ctx, product.ID, pngBytes(128))
	require.NoError(t, err)

	listed, err := svc.List(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Equal(t, int64(256), listed[0].Size)
	assert.Equal(t, "/media/"+first.Key, listed[0].URL)

	require.NoError(t, svc.Delete(ctx, product.ID, first.ID))
	require.ErrorIs(t, svc.Delete(ctx, product.ID, first.ID), domain.ErrNotFound)

	err = images.Create(ctx, &domain.ProductImage{ProductID: product.ID + 100, Key: "products/x.png", ContentType: "image/png", Size: 1})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, products.Delete(ctx, product.ID))
	_, err = images.Get(ctx, product.ID, second.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
