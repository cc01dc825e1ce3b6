package pricing

import "github.com/go-chi/chi/v5"

// RegisterRoutes adds the public catalog endpoints
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/plans", h.Plans)
	r.Post("/quote", h.Quote)
}
