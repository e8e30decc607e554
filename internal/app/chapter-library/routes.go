// Package chapterlibrary собирает HTTP-приложение: хранилища, сервисы и маршруты.
package chapterlibrary

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/chapter-library/internal/config"
	"github.com/magabrotheeeer/chapter-library/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/chapter-library/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/chapter-library/internal/http/handlers/chapter/variants"
	"github.com/magabrotheeeer/chapter-library/internal/http/handlers/health"
	unlockhandler "github.com/magabrotheeeer/chapter-library/internal/http/handlers/unlock"
	"github.com/magabrotheeeer/chapter-library/internal/http/handlers/user/me"
	"github.com/magabrotheeeer/chapter-library/internal/http/middlewarectx"
)

// Services зависимости обработчиков.
type Services struct {
	Auth interface {
		login.Service
		register.Service
		middlewarectx.Service
	}
	Users    me.Service
	Catalog  variants.Catalog
	Settings variants.Settings
	Unlock   unlockhandler.Service
	Health   []health.Check
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, svc Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.MetricsMiddleware(),
	)

	unlockHandler := unlockhandler.New(logger, svc.Unlock, svc.Catalog, svc.Settings)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, rate.Limit(cfg.RateLimit), cfg.RateBurst))

			r.Get("/me", me.New(logger, svc.Users).ServeHTTP)
			r.Get("/chapters/variants", variants.New(logger, svc.Catalog, svc.Settings).ServeHTTP)

			r.Post("/unlock", unlockHandler.Open)
			r.Get("/unlock/pending", unlockHandler.Pending)
			r.Post("/unlock/confirm", unlockHandler.Confirm)
			r.Post("/unlock/cancel", unlockHandler.Cancel)
		})
	})

	healthHandler := health.New(logger, svc.Health...)
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
