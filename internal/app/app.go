package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/auth"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/config"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/event"
	handler "github.com/Shazneenislam/dhakaagro-sub000/internal/handler/http"
	mongorepo "github.com/Shazneenislam/dhakaagro-sub000/internal/repository/mongo"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/repository/postgres"
	redisrepo "github.com/Shazneenislam/dhakaagro-sub000/internal/repository/redis"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/service"
	"github.com/Shazneenislam/dhakaagro-sub000/migrations"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/database"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/health"
	pkgkafka "github.com/Shazneenislam/dhakaagro-sub000/pkg/kafka"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/middleware"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerCfg := tracing.DefaultConfig("storefront")
	tracerCfg.Environment = cfg.Environment
	tracerCfg.OTLPEndpoint = cfg.OTLPEndpoint
	tracerCfg.Enabled = cfg.TracingEnabled
	tracerShutdown, err := tracing.InitTracer(ctx, tracerCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool for the catalog and orders.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "storefront")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize MongoDB for user aggregates (carts and wishlists live
	// embedded in the user document).
	mongoDB, err := database.NewMongoDatabase(ctx, cfg.Mongo())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	logger.Info("connected to MongoDB", slog.String("database", cfg.MongoDB))

	userRepo := mongorepo.NewUserRepository(mongoDB)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		pool.Close()
		_ = mongoDB.Client().Disconnect(ctx)
		return nil, fmt.Errorf("ensure mongo indexes: %w", err)
	}

	// Initialize Redis for refresh token sessions.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		_ = mongoDB.Client().Disconnect(ctx)
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	sessionRepo := redisrepo.NewSessionRepository(redisClient)
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	eventProducer := event.NewProducer(producer, logger)

	userService := service.NewUserService(userRepo, sessionRepo, jwtManager, eventProducer, logger)
	cartService := service.NewCartService(userRepo, productRepo, eventProducer, logger)
	wishlistService := service.NewWishlistService(userRepo, productRepo, eventProducer, logger)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, logger)
	orderService := service.NewOrderService(orderRepo, cartService, productRepo, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("mongo", func(ctx context.Context) error {
		return mongoDB.Client().Ping(ctx, readpref.Primary())
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterDeps{
		Users:      userService,
		Cart:       cartService,
		Wishlist:   wishlistService,
		Catalog:    catalogService,
		Orders:     orderService,
		JWTManager: jwtManager,
		Health:     healthHandler,
		Logger:     logger,
		CORS:       corsCfg,
		PprofCIDRs: cfg.PprofAllowedCIDRs,
		AuthRPS:    cfg.AuthRateLimitRPS,
		AuthBurst:  cfg.AuthRateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		mongoClient:    mongoDB.Client(),
		redisClient:    redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis, MongoDB, PostgreSQL connections
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer mongoCancel()
	if err := a.mongoClient.Disconnect(mongoCtx); err != nil {
		a.logger.Error("mongodb disconnect error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
