package main

import (
	"context"   // Shutdown and background workers
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"storefront/internal/api"        // Custom package for API handlers
	"storefront/internal/config"     // Custom package for configuration
	"storefront/internal/db"         // Data-access helper
	"storefront/internal/logging"    // Log files
	"storefront/internal/middleware" // Custom package for middleware
	"storefront/internal/repository" // MySQL repositories
	"storefront/internal/upload"     // Image uploads

	"github.com/gin-contrib/cors"  // CORS middleware
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 5 * time.Minute
)

// Main function to set up and run the server
func main() {
	started := time.Now()
	cfg := config.LoadConfig() // Load configuration

	// Setup logger and log files
	accessLog, errorHook, err := logging.Setup(cfg.LogDir, cfg.IsProd)
	if err != nil {
		logrus.Fatalf("failed to open log files: %v", err)
	}
	defer accessLog.Close()
	defer errorHook.Close()

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database
	g, err := db.Open(cfg.DSN(), cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, !cfg.IsProd)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	database := db.New(g)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := database.Ping(pingCtx); err != nil {
		logrus.Fatalf("database unreachable: %v", err)
	}
	cancelPing()
	logrus.WithFields(logrus.Fields{"host": cfg.DBHost, "database": cfg.DBName}).Info("Connected to MySQL")

	// Setup Redis client; without REDIS_ADDR caching is disabled
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Login throttle and API limiter
	var loginAttempts, apiLimiter middleware.AttemptCounter
	switch {
	case cfg.ThrottleBackend == "redis" && redisClient != nil:
		loginAttempts = middleware.NewRedisCounter(redisClient, "login_attempts", middleware.LoginWindow, middleware.LoginMaxAttempts)
		apiLimiter = middleware.NewRedisCounter(redisClient, "api_requests", middleware.APIWindow, middleware.APIMaxRequests)
	default:
		if cfg.ThrottleBackend == "redis" {
			logrus.Warn("LOGIN_THROTTLE_BACKEND=redis needs REDIS_ADDR, using memory")
		}
		memLogin := middleware.NewMemoryCounter(middleware.LoginWindow, middleware.LoginMaxAttempts)
		memAPI := middleware.NewMemoryCounter(middleware.APIWindow, middleware.APIMaxRequests)
		go memLogin.RunSweeper(ctx, sweepInterval)
		go memAPI.RunSweeper(ctx, sweepInterval)
		loginAttempts, apiLimiter = memLogin, memAPI
	}

	uploads, err := upload.NewStore(cfg.UploadDir, upload.DefaultMaxSize)
	if err != nil {
		logrus.Fatalf("failed to prepare upload directory: %v", err)
	}
	go logging.RunPruner(ctx, cfg.LogDir)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.New() // Gin router instance
	r.MaxMultipartMemory = upload.DefaultMaxSize * upload.MaxFiles

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}
	r.Use(
		middleware.RequestLogger(accessLog),
		middleware.Recovery(cfg.IsProd),
		middleware.SecurityHeaders(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	deps := api.Deps{
		Health:        database,
		Uploads:       uploads,
		Redis:         redisClient,
		LoginAttempts: loginAttempts,
		APILimiter:    apiLimiter,
		Auth:          api.AuthConfig{Secret: cfg.JWTSecret, TokenTTL: cfg.JWTExpiresIn},
		Environment:   cfg.Environment(),
		StaticDir:     cfg.StaticDir,
		Started:       started,
	}.WithRepositories(repository.New(database))
	if err := api.RegisterRoutes(r, deps); err != nil {
		logrus.Fatalf("failed to register routes: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithFields(logrus.Fields{"port": cfg.AppPort, "environment": cfg.Environment()}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := g.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logrus.Info("Server stopped")
}
