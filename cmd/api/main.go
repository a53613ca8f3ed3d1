package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/handyhub/handyhub-backend/api/controllers"
	"github.com/handyhub/handyhub-backend/api/routes"
	"github.com/handyhub/handyhub-backend/internal/notifications"
	"github.com/handyhub/handyhub-backend/internal/push"
	"github.com/handyhub/handyhub-backend/pkg/auth/session"
	"github.com/handyhub/handyhub-backend/pkg/config"
	"github.com/handyhub/handyhub-backend/pkg/db"
	"github.com/handyhub/handyhub-backend/pkg/logger"
	"github.com/handyhub/handyhub-backend/pkg/metrics"
	"github.com/handyhub/handyhub-backend/pkg/migrate"
	"github.com/handyhub/handyhub-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	pushMetrics := metrics.NewPushMetrics(prometheus.DefaultRegisterer)

	var transport push.Transport
	if cfg.WebPush.Configured() {
		transport, err = push.NewWebPushTransport(cfg.WebPush)
		if err != nil {
			logg.Error(context.Background(), "failed to create push transport", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "vapid keys not configured, push dispatch disabled")
	}

	pushService, err := push.NewService(push.ServiceParams{
		Repo:      push.NewRepository(dbClient.DB()),
		Transport: transport,
		Config:    cfg.WebPush,
		Metrics:   pushMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create push service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			SessionManager: sessionManager,
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Notifications: notificationsService,
			Push:          pushService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
