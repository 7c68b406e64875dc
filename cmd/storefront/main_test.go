package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/config"
)

func TestCheckRequired(t *testing.T) {
	valid := func() *config.Config {
		cfg := &config.Config{}
		cfg.Postgres.URL = "postgres://storefront@localhost/storefront"
		cfg.Auth.JWTSecret = "s3cret"
		return cfg
	}

	require.NoError(t, checkRequired(valid()))

	noDB := valid()
	noDB.Postgres.URL = ""
	assert.ErrorContains(t, checkRequired(noDB), "POSTGRES_URL")

	noSecret := valid()
	noSecret.Auth.JWTSecret = ""
	assert.ErrorContains(t, checkRequired(noSecret), "JWT_SECRET")
}

func TestMediaPrefix(t *testing.T) {
	assert.Equal(t, "/media/", mediaPrefix("/media"))
	assert.Equal(t, "/media/", mediaPrefix("media/"))
	assert.Equal(t, "/static/img/", mediaPrefix("https://cdn.example.com/static/img"))
}

func TestNewMediaStore(t *testing.T) {
	dir := t.TempDir()

	store, handler, err := newMediaStore(config.MediaConfig{Backend: "file", Dir: dir, BaseURL: "/media"})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "products/1/a.png", []byte("png"), "image/png"))
	assert.Equal(t, "/media/products/1/a.png", store.URL("products/1/a.png"))

	mux := http.NewServeMux()
	mux.Handle("GET /media/", handler)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/products/1/a.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())

	_, _, err = newMediaStore(config.MediaConfig{Backend: "s3"})
	assert.ErrorContains(t, err, "S3_BUCKET")

	s3Store, handler, err := newMediaStore(config.MediaConfig{Backend: "s3", S3Bucket: "media", S3Endpoint: "http://minio:9000", S3Region: "us-east-1"})
	require.NoError(t, err)
	assert.Nil(t, handler)
	assert.Equal(t, "http://minio:9000/media/products/1/a.png", s3Store.URL("products/1/a.png"))

	_, _, err = newMediaStore(config.MediaConfig{Backend: "ftp"})
	assert.Error(t, err)
}
