package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handyhub/handyhub-backend/api/controllers"
	"github.com/handyhub/handyhub-backend/api/middleware"
	"github.com/handyhub/handyhub-backend/internal/notifications"
	"github.com/handyhub/handyhub-backend/internal/push"
	"github.com/handyhub/handyhub-backend/pkg/auth/session"
	"github.com/handyhub/handyhub-backend/pkg/config"
	"github.com/handyhub/handyhub-backend/pkg/logger"
)

// Deps collects everything the router needs. Pingers may be nil; nil entries
// are skipped by the readiness check.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	SessionManager session.AccessSessionChecker
	Pingers        map[string]controllers.Pinger

	Notifications notifications.Service
	Push          push.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/push", func(r chi.Router) {
			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/", controllers.RegisterPushSubscription(deps.Push, logg))
				r.Delete("/", controllers.RemovePushSubscription(deps.Push, logg))
			})
			r.Post("/send", controllers.SendPushNotification(deps.Push, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})
	})

	return r
}
