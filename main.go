package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/auth"
	"github.com/projectvault/projectvault/pkg/config"
	"github.com/projectvault/projectvault/pkg/database"
	"github.com/projectvault/projectvault/pkg/handlers"
	"github.com/projectvault/projectvault/pkg/logging"
	"github.com/projectvault/projectvault/pkg/middleware"
	"github.com/projectvault/projectvault/pkg/repositories"
	"github.com/projectvault/projectvault/pkg/retry"
	"github.com/projectvault/projectvault/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeURL(cfg.Database.ConnectionString())),
		zap.String("activity_store", cfg.Activity.Store),
		zap.Bool("redis_enabled", cfg.Redis.Host != ""),
	)

	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	if err := database.RunMigrations(db.SQLDB(), logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	var countCache services.CountCache
	if cfg.Redis.Host != "" {
		redisClient, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*redis.Client, error) {
			return database.NewRedisClient(ctx, &cfg.Redis)
		})
		if err != nil {
			// The count cache is optional; counts fall back to the database.
			logger.Warn("Redis unavailable, favorite counts will not be cached", zap.String("error", logging.SanitizeError(err)))
		} else {
			defer func() { _ = redisClient.Close() }()
			countCache = services.NewRedisCountCache(redisClient, cfg.Redis.TTL)
		}
	}

	activityRepo, closeActivity := newActivityRepository(ctx, cfg, logger)
	defer closeActivity()

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()
	authMiddleware := auth.NewMiddleware(auth.NewAuthService(jwksClient, logger), cfg.Auth.AdminRole, logger)

	// Repositories
	userRepo := repositories.NewUserRepository()
	friendRepo := repositories.NewFriendRepository()
	projectRepo := repositories.NewProjectRepository()
	memberRepo := repositories.NewMemberRepository()
	fileRepo := repositories.NewFileRepository()
	checkoutRepo := repositories.NewCheckoutRepository()
	favoriteRepo := repositories.NewFavoriteRepository()

	// Services
	txManager := database.NewTxManager(db)
	activityService := services.NewActivityService(activityRepo, logger)
	userService := services.NewUserService(userRepo, logger)
	friendService := services.NewFriendService(friendRepo, userRepo, logger)
	favoriteService := services.NewFavoriteService(favoriteRepo, countCache, logger)
	fileService := services.NewFileService(txManager, projectRepo, memberRepo, checkoutRepo, fileRepo, activityService, logger)
	checkoutService := services.NewCheckoutService(txManager, projectRepo, memberRepo, checkoutRepo, activityService,
		cfg.Checkout.DefaultDuration(), logger)
	projectService := services.NewProjectService(txManager, projectRepo, memberRepo, checkoutRepo, userRepo,
		friendService, favoriteService, activityService, logger)

	// Every /api route authenticates, then runs inside a pooled connection
	// scope, then makes sure the caller has a stored user record.
	protected := handlers.Chain(
		authMiddleware.RequireAuth,
		database.WithScope(db, logger),
		handlers.ProvisionUser(userService, logger),
	)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewProjectsHandler(projectService, logger).RegisterRoutes(mux, protected)
	handlers.NewFilesHandler(fileService, logger).RegisterRoutes(mux, protected)
	handlers.NewCheckoutsHandler(checkoutService, logger).RegisterRoutes(mux, protected)
	handlers.NewFriendsHandler(friendService, logger).RegisterRoutes(mux, protected)
	handlers.NewActivitiesHandler(activityService, logger).RegisterRoutes(mux, protected)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting projectvault", zap.String("addr", server.Addr), zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newActivityRepository opens the configured activity store. The returned
// func releases any connection it holds.
func newActivityRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.ActivityRepository, func()) {
	if cfg.Activity.Store != config.ActivityStoreMongo {
		return repositories.NewActivityRepository(), func() {}
	}

	client, mongoDB, err := database.NewMongoDatabase(ctx, &cfg.Activity)
	if err != nil {
		logger.Fatal("Failed to connect to activity store",
			zap.String("url", logging.SanitizeURL(cfg.Activity.MongoURL)),
			zap.String("error", logging.SanitizeError(err)))
	}
	if err := repositories.EnsureActivityIndexes(ctx, mongoDB); err != nil {
		logger.Fatal("Failed to create activity indexes", zap.Error(err))
	}

	return repositories.NewMongoActivityRepository(mongoDB), func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Warn("Failed to disconnect activity store", zap.Error(err))
		}
	}
}
