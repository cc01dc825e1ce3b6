package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes adds the purchaser endpoints to the /buy-tokens router.
// throttle guards session creation only.
func (h *Handler) RegisterRoutes(r chi.Router, authMiddleware, throttle func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.With(throttle).Post("/checkout", h.Checkout)
		r.Get("/status", h.Status)
	})
}

// WebhookRoutes mounts the unauthenticated provider callbacks
func (h *Handler) WebhookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{provider}", h.Webhook)
	return r
}
