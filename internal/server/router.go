package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperr "cookbook/internal/errors"
	"cookbook/internal/handlers"
	applog "cookbook/internal/log"
)

func (s *Server) newRouter(h *handlers.Handler) http.Handler {
	r := chi.NewRouter()
	applog.Debug(context.Background(), "registering http routes")

	r.Use(middleware.RealIP)
	r.Use(s.requestIDMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.panicRecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handlers.DefaultTokenHeader, s.tokenHeader()},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(s.rateLimitMiddleware)
	r.Use(s.loggingMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, apperr.ErrCodeNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, apperr.ErrCodeInvalidRequest, "Method not allowed.")
	})

	r.Get("/healthz", handlers.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/registration", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Get("/all_recipes", h.AllRecipes)
	r.Get("/rcp_by_name/{name}", h.RecipesByName)
	r.Get("/rcp_by_ing/{ing}", h.RecipesByIngredient)
	r.Get("/rcp_by_text/{text}", h.RecipesByText)
	r.Get("/search", h.Search)
	r.Get("/top_ing", h.TopIngredients)
	r.Get("/max_ing", h.MaxIngredients)
	r.Get("/min_ing", h.MinIngredients)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireToken)
		r.Post("/creation", h.CreateRecipe)
		r.Post("/rating", h.RateRecipe)
		r.Get("/my_recipes", h.MyRecipes)
	})

	applog.Debug(context.Background(), "routes registered")
	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.config.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.config.AllowedOrigins
}

func (s *Server) tokenHeader() string {
	if s.config.Auth.TokenHeader == "" {
		return handlers.DefaultTokenHeader
	}
	return s.config.Auth.TokenHeader
}
