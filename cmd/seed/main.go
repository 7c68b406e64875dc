package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/joao-fontenele/storefront/internal/accounts"
	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/customers"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
	"github.com/joao-fontenele/storefront/internal/seed"
	"github.com/joao-fontenele/storefront/internal/tags"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	path := flag.String("file", "seed.yaml", "seed file to load")
	printTokens := flag.Bool("tokens", false, "log a bearer token for every seeded account")
	flag.Parse()

	if err := run(*path, *printTokens, logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(path string, printTokens bool, logger *slog.Logger) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return errors.New("POSTGRES_URL environment variable is required")
	}

	file, err := seed.LoadFile(path)
	if err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.Postgres.URL, cfg.Postgres.MaxOpenConns)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// Writes through a cache-aware service drop the API's cached pages.
	var pageCache catalog.PageCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = rdb.Close() }()
		pageCache = catalog.NewRedisPageCache(rdb, cfg.Redis.CatalogCacheTTL, logger)
	}

	catalogSvc := catalog.NewService(
		catalog.NewProductRepository(db),
		catalog.NewCollectionRepository(db),
		catalog.NewPromotionRepository(db),
		catalog.NewReviewRepository(db),
		pageCache,
		logger,
	)
	customerRepo := customers.NewRepository(db)

	registry := tags.NewRegistry()
	registry.Register(domain.EntityProduct, tags.ResolverFunc(catalogSvc.ProductExists))
	registry.Register(domain.EntityCollection, tags.ResolverFunc(catalogSvc.CollectionExists))
	registry.Register(domain.EntityCustomer, customerRepo)

	seeder := &seed.Seeder{
		Catalog:   catalogSvc,
		Accounts:  accounts.NewService(accounts.NewRepository(), postgres.Transactor{DB: db}, logger, customerRepo.CreateForAccount),
		Customers: customers.NewService(customerRepo, logger),
		Tags:      tags.NewService(registry, tags.NewRepository(db), logger),
		Logger:    logger,
	}
	if printTokens {
		if cfg.Auth.JWTSecret == "" {
			return errors.New("JWT_SECRET environment variable is required to sign tokens")
		}
		seeder.Tokens = auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)
	}

	res, err := seeder.Apply(ctx, file)
	if err != nil {
		return err
	}

	for username, token := range res.Tokens {
		logger.Info("account token", "username", username, "token", token)
	}
	return nil
}
