package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/storage"
)

// newMediaStore opens the configured blob store. For the file backend it
// also returns the handler that serves stored files under MEDIA_URL.
func newMediaStore(cfg config.MediaConfig) (storage.Store, http.Handler, error) {
	switch cfg.Backend {
	case "file":
		fs, err := storage.NewFileStore(cfg.Dir, cfg.BaseURL)
		if err != nil {
			return nil, nil, err
		}
		return fs, http.StripPrefix(mediaPrefix(cfg.BaseURL), http.FileServer(http.Dir(fs.Dir()))), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, nil, errors.New("S3_BUCKET environment variable is required for the s3 media backend")
		}
		return storage.NewS3Store(storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		}), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown MEDIA_BACKEND %q", cfg.Backend)
	}
}

// mediaPrefix turns MEDIA_URL into the path prefix the file server is
// mounted on. MEDIA_URL may be absolute when a proxy fronts the API.
func mediaPrefix(baseURL string) string {
	p := baseURL
	if u, err := url.Parse(baseURL); err == nil {
		p = u.Path
	}
	return "/" + strings.Trim(p, "/") + "/"
}
