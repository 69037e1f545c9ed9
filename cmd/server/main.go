// Package main runs the event registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/akoun-dev/panelevent/config"
	"github.com/akoun-dev/panelevent/internal/auth"
	"github.com/akoun-dev/panelevent/internal/emaillogs"
	"github.com/akoun-dev/panelevent/internal/events"
	"github.com/akoun-dev/panelevent/internal/middleware"
	"github.com/akoun-dev/panelevent/internal/registrations"
	"github.com/akoun-dev/panelevent/pkg/database"
	"github.com/akoun-dev/panelevent/pkg/queue"
	"github.com/akoun-dev/panelevent/pkg/redis"
	"github.com/akoun-dev/panelevent/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	verifier := auth.NewVerifier(cfg.JWT.Secret)
	eventRepo := events.NewRepository(pool)
	emailLogRepo := emaillogs.NewRepository(pool)

	// Confirmation emails are optional: without Redis registrations still succeed.
	var notifier registrations.Notifier
	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Warn("redis unavailable, confirmation emails disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		notifier = emaillogs.NewConfirmationNotifier(emailLogRepo, queue.NewQueue(rdb.Client, logger), logger)
	}

	registrationSvc := registrations.NewService(
		registrations.NewRepository(pool),
		eventRepo,
		notifier,
		registrations.Config{BaseURL: cfg.Registration.BaseURL, RequireToken: cfg.Registration.RequireToken},
		logger,
	)
	registrationHandler := registrations.NewHandler(registrationSvc, logger)
	emailLogsHandler := emaillogs.NewHandler(emailLogRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: attendee registration
	router.POST("/events/:id/register", registrationHandler.Register)
	router.GET("/events/:id/check-registration", registrationHandler.CheckRegistration)
	router.GET("/events/:id/registrations/count", registrationHandler.CountPublic)

	// Organizer: registration links and email logs
	organizer := router.Group("/events/:id")
	organizer.Use(
		middleware.JWT(verifier),
		middleware.RequireRole(auth.RoleAdmin, auth.RoleOrganizer),
		events.RequireOrganizer(eventRepo, logger),
	)
	{
		organizer.GET("/register", registrationHandler.IssueLink)
		organizer.GET("/emails", emailLogsHandler.ListByEvent)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
