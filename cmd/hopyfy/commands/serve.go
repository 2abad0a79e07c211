package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/cache"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/catalog"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/checkout"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/events"
	h "github.com/sinan-prvt/Hopyfy-Cart/internal/http"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/observability"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/orders"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/payment"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/poller"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/repository"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/service"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const version = "0.1.0"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP cart, wishlist and checkout API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			return serve(ctx)
		},
	}
}

// closers run in reverse order on shutdown.
type closers []func()

func (c *closers) add(fn func()) { *c = append(*c, fn) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func serve(ctx context.Context) error {
	var cleanup closers
	defer cleanup.run()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     version,
		Enabled:     cfg.Telemetry.Enabled,
		Output:      os.Stdout,
	}, log)
	if err != nil {
		return err
	}
	cleanup.add(func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	})

	catalogReader, err := openCatalog(&cleanup)
	if err != nil {
		return err
	}

	userStore, err := openUserStore(ctx, &cleanup)
	if err != nil {
		return err
	}

	orderStore, err := openOrderStore(ctx, &cleanup)
	if err != nil {
		return err
	}

	stateCache, err := openCache(ctx, &cleanup)
	if err != nil {
		return err
	}

	carts := service.NewCartService(userStore, stateCache, catalogReader, orderStore, log, service.Options{
		MaxAttempts: cfg.Cart.MaxAttempts,
		CallTimeout: cfg.Cart.CallTimeout,
	})

	var publisher events.Publisher = events.Noop{}
	var wg sync.WaitGroup
	pollCtx, stopPolling := context.WithCancel(ctx)
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		cleanup.add(func() {
			if err := kp.Close(); err != nil {
				log.Warn("error closing kafka writer", "error", err)
			}
		})
		publisher = kp

		p := poller.NewPoller(carts, log, cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Brokers...)
		// registered after the writer so it stops first
		cleanup.add(func() {
			stopPolling()
			wg.Wait()
			p.Close()
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("order event poller started", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
			p.Run(pollCtx)
		}()
	} else {
		log.Warn("KAFKA_BROKERS not set, order events disabled")
	}
	defer stopPolling()

	gateway := payment.NewSimulatedGateway(payment.RandomApprover{}, log)
	placer := checkout.NewService(catalogReader, orderStore, gateway, carts, publisher, log)

	timeout := cfg.HTTP.HandlerTimeout
	router := h.NewRouter(h.Handlers{
		Cart:     h.NewCartHandler(carts, catalogReader, timeout, log),
		Wishlist: h.NewWishlistHandler(carts, catalogReader, timeout, log),
		Checkout: h.NewCheckoutHandler(placer, catalogReader, timeout, log),
		Orders:   h.NewOrdersHandler(orderStore, catalogReader, timeout, log),
	}, log, h.RouterConfig{
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
		AdminToken:         cfg.HTTP.AdminToken,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(router, "hopyfy-http"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

// openCatalog prefers the remote gRPC catalog and falls back to the local
// SQLite file.
func openCatalog(cleanup *closers) (catalog.Reader, error) {
	if cfg.Catalog.Addr != "" {
		conn, err := catalog.Dial(cfg.Catalog.Addr)
		if err != nil {
			return nil, err
		}
		cleanup.add(func() { conn.Close() })
		log.Info("using remote catalog", "addr", cfg.Catalog.Addr)
		return catalog.NewClient(conn, catalog.ClientOptions{
			Timeout:             cfg.Catalog.Timeout,
			ConsecutiveFailures: cfg.Catalog.BreakerFailures,
			OpenTimeout:         cfg.Catalog.BreakerOpenDuration,
			Log:                 log,
		}), nil
	}

	repo, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		return nil, err
	}
	cleanup.add(func() { repo.Close() })
	if err := repo.RunMigrations(cfg.Catalog.MigrationsDir); err != nil {
		return nil, err
	}
	log.Info("using local catalog", "db", cfg.Catalog.DBPath)
	return repo, nil
}

func openUserStore(ctx context.Context, cleanup *closers) (repository.UserStore, error) {
	if cfg.Mongo.URI == "" {
		log.Warn("MONGO_URI not set, user state is kept in memory")
		return repository.NewMemoryStore(), nil
	}
	db, err := repository.ConnectMongoDB(ctx, repository.MongoOptions{
		URI:                    cfg.Mongo.URI,
		Database:               cfg.Mongo.Database,
		MaxPoolSize:            cfg.Mongo.MaxPoolSize,
		MinPoolSize:            cfg.Mongo.MinPoolSize,
		ConnectTimeout:         cfg.Mongo.ConnectTimeout,
		ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
	})
	if err != nil {
		return nil, err
	}
	cleanup.add(func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db.Client().Disconnect(dctx)
	})
	repo := repository.NewMongoRepository(db)
	if err := repo.CreateIndexes(ctx); err != nil {
		return nil, err
	}
	log.Info("connected to MongoDB", "database", cfg.Mongo.Database)
	return repo, nil
}

func openOrderStore(ctx context.Context, cleanup *closers) (orders.Store, error) {
	if cfg.Postgres.Host == "" {
		log.Warn("POSTGRES_HOST not set, orders are kept in memory")
		return orders.NewMemoryRepository(), nil
	}
	repo, err := orders.NewPostgresRepository(ctx, postgresCredentials())
	if err != nil {
		return nil, err
	}
	cleanup.add(func() { repo.Close() })
	if err := repo.RunMigrations(cfg.Postgres.MigrationsDir); err != nil {
		return nil, err
	}
	log.Info("connected to Postgres", "host", cfg.Postgres.Host, "db", cfg.Postgres.DBName)
	return repo, nil
}

func openCache(ctx context.Context, cleanup *closers) (cache.StateCache, error) {
	if cfg.Redis.Addr == "" {
		log.Warn("REDIS_ADDR not set, state cache disabled")
		return cache.Noop{}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cleanup.add(func() { client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info("Redis ping succeeded", "addr", cfg.Redis.Addr)
	return cache.NewRedisCache(client, cfg.Redis.TTL), nil
}
