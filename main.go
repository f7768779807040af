package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VanitasCaesar1/clinical-dashboard/aiclient"
	"github.com/VanitasCaesar1/clinical-dashboard/cache"
	"github.com/VanitasCaesar1/clinical-dashboard/config"
	"github.com/VanitasCaesar1/clinical-dashboard/documents"
	"github.com/VanitasCaesar1/clinical-dashboard/handlers"
	"github.com/VanitasCaesar1/clinical-dashboard/middleware"
	"github.com/VanitasCaesar1/clinical-dashboard/repository"
	"github.com/VanitasCaesar1/clinical-dashboard/scheduler"
	"github.com/VanitasCaesar1/clinical-dashboard/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const maxConnectRetries = 5

type App struct {
	Fiber       *fiber.App
	Postgres    *pgxpool.Pool
	Redis       *redis.Client
	MinioClient *minio.Client
	Ctx         context.Context
	Config      *config.Config
	Logger      *zap.Logger

	Cache     *cache.Cache
	Store     *store.Store
	AI        *aiclient.Client
	Archive   *documents.Archive
	Uploads   *repository.Uploads
	Scheduler *scheduler.Scheduler
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func connectRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis URL parsing failed: %v", err)
	}

	redisClient := redis.NewClient(redisOpt)
	for i := 0; i < maxConnectRetries; i++ {
		_, err = redisClient.Ping(ctx).Result()
		if err == nil {
			return redisClient, nil
		}
		logger.Warn("failed to connect to redis, retrying...",
			zap.Error(err),
			zap.Int("attempt", i+1))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	redisClient.Close()
	return nil, fmt.Errorf("redis connection failed after %d attempts: %v", maxConnectRetries, err)
}

func connectPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pool config: %v", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	for i := 0; i < maxConnectRetries; i++ {
		var pool *pgxpool.Pool
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn("failed to connect to postgres, retrying...",
			zap.Error(err),
			zap.Int("attempt", i+1))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return nil, fmt.Errorf("postgres connection failed after %d attempts: %v", maxConnectRetries, err)
}

func connectMinio(cfg *config.Config, logger *zap.Logger) (*minio.Client, error) {
	var (
		client *minio.Client
		err    error
	)
	for i := 0; i < maxConnectRetries; i++ {
		client, err = minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
			Secure: cfg.MinioSecure,
			Region: cfg.MinioRegion,
		})
		if err == nil {
			return client, nil
		}
		logger.Warn("failed to create minio client, retrying...",
			zap.Error(err),
			zap.Int("attempt", i+1))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return nil, fmt.Errorf("minio connection failed after %d attempts: %v", maxConnectRetries, err)
}

func NewApp() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	app := &App{Ctx: ctx, Config: cfg, Logger: logger}

	var persist store.Persistence
	switch cfg.CacheBackend {
	case "memory":
		logger.Info("using in-process patient cache")
		persist = cache.NewMemory()
	default:
		if app.Redis, err = connectRedis(ctx, cfg, logger); err != nil {
			return nil, err
		}
		app.Cache = cache.NewCache(app.Redis, cfg.CachePrefix, cfg.CacheTTL)
		persist = app.Cache
	}

	if cfg.HistoryEnabled() {
		if app.Postgres, err = connectPostgres(ctx, cfg, logger); err != nil {
			return nil, err
		}
		app.Uploads = repository.NewUploads(app.Postgres)
		if err := app.Uploads.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate upload history: %v", err)
		}
	} else {
		logger.Info("upload history disabled, POSTGRES_URL not set")
	}

	if cfg.ArchiveEnabled() {
		if app.MinioClient, err = connectMinio(cfg, logger); err != nil {
			return nil, err
		}
		app.Archive = documents.NewArchive(documents.MinioStorage{Client: app.MinioClient},
			cfg.MinioBucket, cfg.MinioRegion, logger)
		if err := app.Archive.EnsureBucket(ctx); err != nil {
			logger.Error("failed to prepare document bucket",
				zap.String("bucket", cfg.MinioBucket),
				zap.Error(err))
		}
	} else {
		logger.Info("document archive disabled, MINIO_ENDPOINT not set")
	}

	app.AI = aiclient.New(cfg.AIBackendURL, cfg.ChatURL, cfg.RequestTimeout, logger)
	app.Store = store.New(persist, app.AI, logger, cfg.RequestTimeout)
	app.Scheduler = scheduler.New(scheduler.RefreshFunc(func(ctx context.Context) error {
		_, err := app.Store.Refresh(ctx)
		return err
	}), cfg.RefreshSchedule, cfg.RequestTimeout, logger)

	app.Fiber = fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			logger.Error("request error",
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.Int("status", code))
			errCode := handlers.CodeInternal
			switch {
			case code == fiber.StatusRequestEntityTooLarge:
				errCode = handlers.CodeFileTooLarge
			case code < fiber.StatusInternalServerError:
				errCode = handlers.CodeInvalidRequest
			}
			return c.Status(code).JSON(handlers.NewErrorResponse(errCode, err.Error()))
		},
		// Leave room for the multipart envelope around the largest upload.
		BodyLimit:    int(cfg.MaxUploadBytes) + 1<<20,
		ReadTimeout:  time.Minute,
		WriteTimeout: 3 * time.Minute,
	})

	app.Fiber.Use(middleware.RequestIDMiddleware())
	app.Fiber.Use(middleware.RequestLogger(logger))
	app.Fiber.Use(middleware.RecoveryMiddleware(logger))
	app.Fiber.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  "GET,POST,HEAD,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, " + middleware.HeaderRequestID,
		ExposeHeaders: middleware.HeaderRequestID,
		MaxAge:        300,
	}))

	return app, nil
}

func (a *App) setupRoutes() {
	checks := map[string]handlers.HealthCheck{}
	if a.Cache != nil {
		checks["redis"] = a.Cache.Ping
	}
	if a.Postgres != nil {
		checks["postgres"] = a.Postgres.Ping
	}
	healthHandler := handlers.NewHealthHandler(checks, a.Logger)

	patientHandler := handlers.NewPatientHandler(a.Store, a.Logger, a.Config.RequestTimeout)
	chatHandler := handlers.NewChatHandler(a.AI, a.Logger, a.Config.RequestTimeout)

	docCfg := handlers.DocumentHandlerConfig{
		Ingester:       a.AI,
		Invalidator:    a.Store,
		Logger:         a.Logger,
		MaxUploadBytes: a.Config.MaxUploadBytes,
		Timeout:        a.Config.RequestTimeout * 4,
	}
	// Assigned only when set so the handler sees a nil interface otherwise.
	if a.Archive != nil {
		docCfg.Archive = a.Archive
	}
	if a.Uploads != nil {
		docCfg.History = a.Uploads
	}
	documentHandler := handlers.NewDocumentHandler(docCfg)

	a.Fiber.Get("/healthz", healthHandler.Healthz)

	api := a.Fiber.Group("/api")

	patients := api.Group("/patients")
	patients.Get("/", patientHandler.ListPatients)
	patients.Post("/refresh", patientHandler.RefreshPatients)
	patients.Get("/:id", patientHandler.GetPatient)
	patients.Get("/:id/timeline", patientHandler.GetTimeline)
	patients.Get("/:id/graphs", patientHandler.GetGraphs)
	patients.Get("/:id/charts", patientHandler.ListCharts)
	patients.Get("/:id/charts/:index", patientHandler.GetChart)
	patients.Get("/:id/labs/:test/chart", patientHandler.GetLabChart)

	docs := api.Group("/documents")
	docs.Post("/", documentHandler.Upload)
	docs.Get("/", documentHandler.ListUploads)
	docs.Get("/:id", documentHandler.GetDocument)

	api.Post("/chat", chatHandler.Chat)
}

func (a *App) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.setupRoutes()

	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start refresh scheduler: %v", err)
	}

	go func() {
		if err := a.Fiber.Listen(":" + a.Config.ServerPort); err != nil {
			a.Logger.Fatal("failed to start server",
				zap.Error(err),
				zap.String("port", a.Config.ServerPort))
		}
	}()

	a.Logger.Info("server started",
		zap.String("port", a.Config.ServerPort),
		zap.String("environment", a.Config.Environment),
		zap.String("cache", a.Config.CacheBackend))

	<-sigChan
	a.Logger.Info("shutting down server...")

	a.Scheduler.Stop()
	if err := a.Fiber.Shutdown(); err != nil {
		a.Logger.Error("error during server shutdown",
			zap.Error(err))
	}
	if a.Postgres != nil {
		a.Postgres.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("error closing redis connection",
				zap.Error(err))
		}
	}
	if err := a.Logger.Sync(); err != nil {
		log.Printf("error syncing logger: %v", err)
	}

	return nil
}

func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Start(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
