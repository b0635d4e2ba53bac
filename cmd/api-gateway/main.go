package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/dims-api/api/swagger"
	"github.com/noah-isme/dims-api/internal/fixtures"
	"github.com/noah-isme/dims-api/internal/handler"
	internalmiddleware "github.com/noah-isme/dims-api/internal/middleware"
	"github.com/noah-isme/dims-api/internal/models"
	"github.com/noah-isme/dims-api/internal/repository"
	"github.com/noah-isme/dims-api/internal/service"
	"github.com/noah-isme/dims-api/pkg/cache"
	"github.com/noah-isme/dims-api/pkg/config"
	"github.com/noah-isme/dims-api/pkg/database"
	"github.com/noah-isme/dims-api/pkg/export"
	"github.com/noah-isme/dims-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/dims-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/dims-api/pkg/middleware/requestid"
)

// @title DIMS Communications API
// @version 1.0.0
// @description Circulars board: announcements, circulars and memos with audience targeting and acknowledgement tracking
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type recordStore interface {
	List(ctx context.Context) ([]models.Communication, error)
	Get(ctx context.Context, id string) (*models.Communication, error)
	Create(ctx context.Context, item models.Communication) (models.Communication, error)
	Update(ctx context.Context, item models.Communication) (models.Communication, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis unavailable", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	directoryRepo := repository.NewDirectoryRepository(fixtures.DirectoryUsers())

	store, db, err := openStore(ctx, cfg, directoryRepo, logr)
	if err != nil {
		logr.Sugar().Fatalw("record store unavailable", "store", cfg.Circulars.Store, "error", err)
	}
	if db != nil {
		defer db.Close() //nolint:errcheck
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Circulars.StatsCacheTTL, logr, redisClient != nil)

	directorySvc := service.NewDirectoryService(directoryRepo, logr)
	visitSvc := service.NewVisitService(repository.NewVisitRepository(redisClient, 0), logr)
	sessionSvc := service.NewSessionService(directoryRepo, visitSvc, validate, logr, service.SessionConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Issuer: cfg.Session.Issuer,
	})

	activitySvc := service.NewActivityService(
		repository.NewActivityRepository(redisClient, cfg.Activity.MaxEntries),
		service.ActivityConfig{Workers: cfg.Activity.Workers, MaxRetries: cfg.Activity.Retries},
		metricsSvc,
		logr,
	)
	activitySvc.Start(context.Background())

	circularSvc := service.NewCircularService(store, service.CircularDeps{
		Directory: directorySvc,
		Activity:  activitySvc,
		Visits:    visitSvc,
		Cache:     cacheSvc,
		Metrics:   metricsSvc,
		Logger:    logr,
	}, service.CircularConfig{
		ArchivePageSize: cfg.Circulars.ArchivePageSize,
		StatsTTL:        cfg.Circulars.StatsCacheTTL,
	})

	boardSvc := service.NewBoardService(circularSvc, service.BoardConfig{
		UnreadPageSize:   cfg.Board.UnreadPageSize,
		RotationInterval: cfg.Board.RotationInterval,
		ScrollTolerance:  cfg.Board.ScrollTolerance,
		AckFlashDuration: cfg.Board.AckFlashDuration,
		IdleTTL:          cfg.Board.IdleTTL,
	}, metricsSvc, logr)
	boardSvc.Start(ctx)

	exportSvc := service.NewExportService(circularSvc, logr, export.NewCSVExporter(), export.NewPDFExporter())

	sessionHandler := handler.NewSessionHandler(sessionSvc)
	directoryHandler := handler.NewDirectoryHandler(directorySvc)
	circularHandler := handler.NewCircularHandler(circularSvc, boardSvc, exportSvc)
	boardHandler := handler.NewBoardHandler(boardSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readinessChecks(store, db, redisClient))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/session", sessionHandler.SignIn)
	api.GET("/directory-users", directoryHandler.List)
	api.GET("/directory-users/candidates", directoryHandler.Candidates)
	api.GET("/directory-users/:id", directoryHandler.Get)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(sessionSvc))
	secured.GET("/session", sessionHandler.Current)
	secured.GET("/activity", activityHandler.Recent)
	secured.GET("/metrics/summary", internalmiddleware.RequireRoles(models.RoleSystemAdmin), metricsHandler.Summary)

	circulars := secured.Group("/circulars")
	circulars.GET("", circularHandler.List)
	circulars.POST("", internalmiddleware.RequireAuthor(), circularHandler.Create)
	circulars.GET("/unread", circularHandler.Unread)
	circulars.GET("/archive", circularHandler.Archive)
	circulars.GET("/stats", circularHandler.Stats)
	circulars.GET("/:id", circularHandler.Get)
	circulars.PUT("/:id", internalmiddleware.RequireAuthor(), circularHandler.Update)
	circulars.POST("/:id/acknowledge", circularHandler.Acknowledge)
	circulars.GET("/:id/receipts", internalmiddleware.RequireAuthor(), circularHandler.Receipts)
	circulars.GET("/:id/receipts/export", internalmiddleware.RequireAuthor(), circularHandler.ExportReceipts)

	board := secured.Group("/board")
	board.GET("", boardHandler.Snapshot)
	board.DELETE("", boardHandler.Close)
	board.POST("/rotation/next", boardHandler.Next)
	board.POST("/rotation/prev", boardHandler.Prev)
	board.POST("/rotation/hover", boardHandler.Hover)
	board.POST("/rotation/leave", boardHandler.Leave)
	board.POST("/items/:id/open", boardHandler.Open)
	board.POST("/scroll", boardHandler.Scroll)
	board.POST("/close", boardHandler.CloseItem)
	board.POST("/acknowledge", boardHandler.Acknowledge)
	board.PUT("/archive", boardHandler.SetArchive)
	board.POST("/archive/next", boardHandler.ArchiveNext)
	board.POST("/archive/prev", boardHandler.ArchivePrev)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "store", cfg.Circulars.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown", zap.Error(err))
	}
	boardSvc.Shutdown()
	if err := activitySvc.Stop(shutdownCtx); err != nil {
		logr.Warn("activity queue shutdown", zap.Error(err))
	}
}

// openStore selects the record store driver. db is non-nil only for postgres.
func openStore(ctx context.Context, cfg *config.Config, directory *repository.DirectoryRepository, logr *zap.Logger) (recordStore, *sqlx.DB, error) {
	switch cfg.Circulars.Store {
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, db, repository.CircularSchema); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		store := repository.NewCircularRepository(db)
		if cfg.Circulars.SeedFixtures {
			if err := seedStore(ctx, store, logr); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return store, db, nil
	case config.StoreRemote:
		return repository.NewRemoteCircularRepository(cfg.Circulars.RemoteURL, cfg.Circulars.RemoteTimeout, directory.IDByName, logr), nil, nil
	default:
		var seed []models.Communication
		if cfg.Circulars.SeedFixtures {
			seed = fixtures.Communications(time.Now())
		}
		return repository.NewMemoryCircularRepository(seed), nil, nil
	}
}

// seedStore loads the fixture communications into an empty store.
func seedStore(ctx context.Context, store recordStore, logr *zap.Logger) error {
	existing, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	items := fixtures.Communications(time.Now())
	for _, item := range items {
		if _, err := store.Create(ctx, item); err != nil {
			return fmt.Errorf("seed %s: %w", item.ID, err)
		}
	}
	logr.Info("seeded communications", zap.Int("count", len(items)))
	return nil
}

func readinessChecks(store recordStore, db *sqlx.DB, client *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"store": func(ctx context.Context) error {
			_, err := store.List(ctx)
			return err
		},
	}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}
