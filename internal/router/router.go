package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-shop-auth/internal/config"
	"go-shop-auth/internal/handler"
	"go-shop-auth/internal/middleware"
	"go-shop-auth/internal/model"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimit := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery(cfg.FailFast))
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimit.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/register", authHandler.Register)
		api.Post("/login", authHandler.Login)
		api.Post("/refresh", authHandler.Refresh)
		api.Get("/logout", authHandler.Logout)

		api.Post("/password/forgot", userHandler.ForgotPassword)
		api.Post("/password/reset/{resetToken}", userHandler.ResetPassword)
		api.With(authMiddleware.RequireAuth).Post("/password/update", userHandler.UpdatePassword)

		api.With(authMiddleware.RequireAuth).Get("/me", userHandler.Me)
		api.With(authMiddleware.RequireAuth).Put("/me/update", userHandler.UpdateProfile)

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth, authMiddleware.RequireRole(model.RoleAdmin))
			admin.Get("/users", userHandler.AdminListUsers)
			admin.Get("/users/{id}", userHandler.AdminGetUser)
			admin.Put("/users/{id}", userHandler.AdminUpdateUser)
			admin.Delete("/users/{id}", userHandler.AdminDeleteUser)
		})
	})

	return r
}
