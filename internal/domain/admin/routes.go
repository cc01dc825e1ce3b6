package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nebula-studio/billing-api/internal/middleware"
)

// Routes returns admin router
func (h *TokenHandler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireAdmin())

	r.Route("/users", func(r chi.Router) {
		r.Post("/{id}/tokens/grant", h.GrantTokens)
	})
	return r
}
