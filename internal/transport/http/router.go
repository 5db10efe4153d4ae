package http

import (
	"net/http"

	"github.com/KenzoYff/evently-ux-platform-94/internal/config"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/transport/http/handler"
	appmiddleware "github.com/KenzoYff/evently-ux-platform-94/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second with a burst of 10 per client, on endpoints that issue codes or check passwords.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(deps.Sessions)
	twoFactorH := handler.NewTwoFactorHandler(deps.Auth, cfg.ExposeVerificationCodes)
	pwH := handler.NewPasswordRecoveryHandler(deps.Auth, cfg.ExposeVerificationCodes)
	userH := handler.NewUserHandler(deps.Users)
	settingsH := handler.NewSettingsHandler(deps.Settings)
	eventH := handler.NewEventHandler(deps.Events)
	taskH := handler.NewTaskHandler(deps.Tasks)
	docH := handler.NewDocumentHandler(deps.Documents, cfg.MaxDocumentBytes)
	notifH := handler.NewNotificationHandler(deps.Notifications)
	deviceH := handler.NewDeviceHandler(deps.Devices)

	r.Route("/v1", func(r chi.Router) {
		// Public
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", pwH.Action)

		// Authenticated, second factor may still be pending. The idle guard
		// also ends pending sessions left waiting past their window.
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(appmiddleware.IdleGuard(deps.Sessions))

			r.With(sensitiveRL.Limit).Post("/two-factor/request", twoFactorH.Request)
			r.With(sensitiveRL.Limit).Post("/two-factor/verify", twoFactorH.Verify)
			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)
		})

		// Fully authenticated and not idled out.
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(appmiddleware.RequireTwoFactorComplete)
			r.Use(appmiddleware.IdleGuard(deps.Sessions))

			r.Post("/sessions/activity", sessionH.Activity)

			r.Get("/settings", settingsH.Get)
			r.Put("/settings", settingsH.Update)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Post("/users/{id}/avatar", userH.UploadAvatar)
			r.Post("/password/change", userH.ChangePassword)

			r.Get("/events", eventH.List)
			r.Post("/events", eventH.Create)
			r.Get("/events/{id}", eventH.Get)
			r.Put("/events/{id}", eventH.Update)
			r.Delete("/events/{id}", eventH.Delete)
			r.Get("/events/{id}/members", eventH.ListMembers)
			r.Post("/events/{id}/members", eventH.AddMember)
			r.Delete("/events/{id}/members/{userID}", eventH.RemoveMember)

			r.Get("/events/{id}/tasks", taskH.List)
			r.Post("/events/{id}/tasks", taskH.Create)
			r.Put("/tasks/{id}", taskH.Update)
			r.Put("/tasks/{id}/move", taskH.Move)
			r.Delete("/tasks/{id}", taskH.Delete)

			r.Get("/events/{id}/documents", docH.List)
			r.Post("/events/{id}/documents", docH.Upload)
			r.Get("/documents/{id}", docH.Download)
			r.Get("/documents/{id}/url", docH.URL)
			r.Delete("/documents/{id}", docH.Delete)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread-count", notifH.UnreadCount)
			r.Put("/notifications/read-all", notifH.MarkAllAsRead)
			r.Put("/notifications/{id}", notifH.MarkAsRead)

			r.Get("/devices", deviceH.List)
			r.Post("/devices", deviceH.Register)
			r.Delete("/devices/{id}", deviceH.Delete)

			r.Get("/roles", handler.ListRoles)
			r.Get("/statuses", handler.ListStatuses)

			// Admin-only
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)
			})
		})
	})

	return r
}
