package credit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes adds balance and history endpoints behind auth
func (h *Handler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/balance", h.Balance)
		r.Get("/transactions", h.Transactions)
	})
}
