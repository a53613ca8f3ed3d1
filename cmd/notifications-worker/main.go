package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/handyhub/handyhub-backend/internal/notifications"
	"github.com/handyhub/handyhub-backend/internal/push"
	"github.com/handyhub/handyhub-backend/pkg/config"
	"github.com/handyhub/handyhub-backend/pkg/db"
	"github.com/handyhub/handyhub-backend/pkg/events/idempotency"
	"github.com/handyhub/handyhub-backend/pkg/logger"
	"github.com/handyhub/handyhub-backend/pkg/metrics"
	"github.com/handyhub/handyhub-backend/pkg/migrate"
	"github.com/handyhub/handyhub-backend/pkg/pubsub"
	"github.com/handyhub/handyhub-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "notifications-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "notifications-worker"

	logg = logger.New(logger.Options{
		ServiceName: "notifications-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database client", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	subscription := pubsubClient.DomainSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "domain subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "notifications service", err)

	var transport push.Transport
	if cfg.WebPush.Configured() {
		transport, err = push.NewWebPushTransport(cfg.WebPush)
		requireResource(ctx, logg, "web push transport", err)
	} else {
		logg.Warn(ctx, "vapid keys not configured, push dispatch disabled")
	}

	pushService, err := push.NewService(push.ServiceParams{
		Repo:      push.NewRepository(dbClient.DB()),
		Transport: transport,
		Config:    cfg.WebPush,
		Metrics:   metrics.NewPushMetrics(prometheus.DefaultRegisterer),
		Logger:    logg,
	})
	requireResource(ctx, logg, "push service", err)

	consumer, err := notifications.NewConsumer(notificationsService, pushService, subscription, manager, logg)
	requireResource(ctx, logg, "notifications consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "notifications worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "notifications worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
