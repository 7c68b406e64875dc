package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/joao-fontenele/storefront/internal/accounts"
	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/carts"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/customers"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/events"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/postgres"
	"github.com/joao-fontenele/storefront/internal/storage"
	"github.com/joao-fontenele/storefront/internal/tags"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

// eventTimeout bounds a single subscriber delivery.
const eventTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if err := run(cfg, logger); err != nil {
		logger.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

func checkRequired(cfg *config.Config) error {
	if cfg.Postgres.URL == "" {
		return errors.New("POSTGRES_URL environment variable is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	return nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := checkRequired(cfg); err != nil {
		return err
	}

	if cfg.Telemetry.Enabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.OTLPEndpoint, cfg.ServiceName, cfg.ServiceVersion)
		if err != nil {
			return err
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	checkoutMetrics, err := telemetry.NewCheckoutMetrics()
	if err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.Postgres.URL, cfg.Postgres.MaxOpenConns)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var rdb *redis.Client
	var pageCache catalog.PageCache
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		pageCache = catalog.NewRedisPageCache(rdb, cfg.Redis.CatalogCacheTTL, logger)
	} else {
		logger.Warn("REDIS_ADDR not set, catalog cache disabled")
	}

	dispatcher := events.NewDispatcher[domain.OrderCreatedEvent]("order_created", eventTimeout, logger)
	dispatcher.Subscribe("metrics", func(ctx context.Context, e domain.OrderCreatedEvent) error {
		checkoutMetrics.RecordPlaced(ctx, len(e.Items))
		return nil
	})
	dispatcher.Subscribe("audit", func(_ context.Context, e domain.OrderCreatedEvent) error {
		logger.Info("audit",
			"event", "order_created",
			"order_id", e.OrderID,
			"customer_id", e.CustomerID,
			"items", len(e.Items),
			"total", e.Total,
		)
		return nil
	})
	if len(cfg.Kafka.Brokers) > 0 {
		producer := messaging.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderCreatedTopic)
		defer func() { _ = producer.Close() }()
		dispatcher.Subscribe("kafka", producer.PublishOrderCreated)
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events stay in-process")
	}

	blobs, mediaHandler, err := newMediaStore(cfg.Media)
	if err != nil {
		return err
	}

	app := newApp(db, pageCache, blobs, dispatcher, checkoutMetrics, logger)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)

	mux := http.NewServeMux()
	app.routes(mux)
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /readyz", readiness(db, rdb, logger))
	if mediaHandler != nil {
		mux.Handle("GET "+mediaPrefix(cfg.Media.BaseURL), mediaHandler)
	}

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: otelhttp.NewHandler(auth.Authenticate(tokens)(mux), cfg.ServiceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting storefront", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if werr := dispatcher.Wait(shutdownCtx); werr != nil {
			logger.Warn("event deliveries still in flight", "error", werr)
		}
		return err
	})

	return g.Wait()
}

type app struct {
	catalog   *catalog.Handler
	carts     *carts.Handler
	orders    *orders.Handler
	customers *customers.Handler
	accounts  *accounts.Handler
	tags      *tags.Handler
	images    *catalog.ImageHandler
}

func newApp(db *sql.DB, pageCache catalog.PageCache, blobs storage.Store, dispatcher *events.Dispatcher[domain.OrderCreatedEvent], metrics *telemetry.CheckoutMetrics, logger *slog.Logger) *app {
	productRepo := catalog.NewProductRepository(db)
	catalogSvc := catalog.NewService(
		productRepo,
		catalog.NewCollectionRepository(db),
		catalog.NewPromotionRepository(db),
		catalog.NewReviewRepository(db),
		pageCache,
		logger,
	)

	cartRepo := carts.NewRepository(db)
	customerRepo := customers.NewRepository(db)
	orderRepo := orders.NewOrderRepository(db)

	accountSvc := accounts.NewService(
		accounts.NewRepository(),
		postgres.Transactor{DB: db},
		logger,
		customerRepo.CreateForAccount,
	)

	registry := tags.NewRegistry()
	registry.Register(domain.EntityProduct, tags.ResolverFunc(catalogSvc.ProductExists))
	registry.Register(domain.EntityCollection, tags.ResolverFunc(catalogSvc.CollectionExists))
	registry.Register(domain.EntityCustomer, customerRepo)

	checkout := orders.NewCheckout(cartRepo, customerRepo, orderRepo, dispatcher, metrics, logger)

	return &app{
		catalog:   catalog.NewHandler(catalogSvc, logger),
		carts:     carts.NewHandler(carts.NewService(cartRepo, logger), logger),
		orders:    orders.NewHandler(checkout, orders.NewService(orderRepo, customerRepo, logger), logger),
		customers: customers.NewHandler(customers.NewService(customerRepo, logger), logger),
		accounts:  accounts.NewHandler(accountSvc, logger),
		tags:      tags.NewHandler(tags.NewService(registry, tags.NewRepository(db), logger), logger),
		images:    catalog.NewImageHandler(catalog.NewImageService(productRepo, catalog.NewImageRepository(db), blobs, logger), logger),
	}
}

func readiness(db *sql.DB, rdb *redis.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Warn("readiness: postgres unreachable", "error", err)
			http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Warn("readiness: redis unreachable", "error", err)
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
