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

	"pms/config"
	"pms/constants"
	"pms/jobs"
	"pms/repositories"
	"pms/routes"
	"pms/services"
	"pms/services/logger"
	"pms/services/notification"
	"pms/validator"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadEnv()

	appLog, err := logger.NewZapLogger(logger.ParseLevel(config.GetEnv("LOG_LEVEL", "info")))
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router, m, c, err := config.InitApp(ctx, appLog)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	if err := validator.RegisterBindings(); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}

	node, err := snowflake.NewNode(int64(config.GetEnvInt("NODE_ID", 1)))
	if err != nil {
		log.Fatalf("Failed to create id node: %v", err)
	}

	repo := repositories.NewGormRepository(config.DB)
	cache := services.NewRedisCache(config.RedisClient)
	ttl := config.GetEnvDuration("CACHE_TTL", time.Hour)

	settings := services.NewSettingsService(services.SettingsServiceOptions{Repo: repo, Cache: cache, TTL: ttl, Logger: appLog})
	availability := services.NewAvailabilityService(services.AvailabilityServiceOptions{Repo: repo, Settings: settings, Logger: appLog})
	conflicts := services.NewConflictService(services.ConflictServiceOptions{Repo: repo, Availability: availability, Logger: appLog})
	notifier := notification.NewOTANotifier(notification.OTANotifierOptions{
		Repo:        repo,
		Broadcaster: notification.NewMelodyService(m),
		Logger:      appLog,
	})
	lifecycle := services.NewLifecycleService(services.LifecycleServiceOptions{
		Repo:         repo,
		Availability: availability,
		Conflicts:    conflicts,
		Settings:     settings,
		Notifier:     notifier,
		IDNode:       node,
		Logger:       appLog,
	})
	currency := services.NewCurrencyService(services.CurrencyServiceOptions{Repo: repo, Cache: cache, TTL: ttl, Logger: appLog})
	credit := services.NewCreditService(services.CreditServiceOptions{Repo: repo, Currency: currency, Logger: appLog})
	folios := services.NewFolioService(services.FolioServiceOptions{Repo: repo, Logger: appLog})

	if err := jobs.InitCronJobs(c, repo, appLog); err != nil {
		log.Fatalf("Failed to initialize cron jobs: %v", err)
	}
	defer c.Stop()

	config.InitWebSocket(router, m, appLog)

	routes.SetupRoutes(router, routes.Dependencies{
		Repo:         repo,
		Settings:     settings,
		Availability: availability,
		Conflicts:    conflicts,
		Lifecycle:    lifecycle,
		Folios:       folios,
		Credit:       credit,
		Currency:     currency,
		Logger:       appLog,
		JWTSecret:    config.GetEnv("JWT_SECRET", ""),
		BaseCurrency: config.GetEnv("BASE_CURRENCY", constants.DefaultBaseCurrency),
	})

	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	port := config.GetEnv("PORT", "8083")
	srv := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		appLog.Info("Server starting on port %s...", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = m.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("server shutdown: %v", err)
	}
}
