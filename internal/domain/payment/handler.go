package payment

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nebula-studio/billing-api/internal/domain/pricing"
	"github.com/nebula-studio/billing-api/internal/middleware"
	"github.com/nebula-studio/billing-api/internal/pkg/errorhandler"
	"github.com/nebula-studio/billing-api/internal/pkg/response"
	"github.com/nebula-studio/billing-api/internal/pkg/validator"
)

const (
	maxWebhookBody  = 1 << 20
	maxCheckoutBody = 16 << 10
)

// Handler handles payment HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates payment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CheckoutRequest accepts either planId or amount
type CheckoutRequest struct {
	PlanID   string          `json:"planId" validate:"omitempty,max=64"`
	Amount   json.RawMessage `json:"amount"`
	Provider string          `json:"provider" validate:"omitempty,provider"`
	Lang     string          `json:"lang" validate:"omitempty,lang"`
}

// Checkout handles POST /buy-tokens/checkout
// @Summary Start a token purchase
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CheckoutRequest true "Plan or amount"
// @Success 200 {object} response.Response{data=CheckoutResult}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /buy-tokens/checkout [post]
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCheckoutBody)
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.Checkout(r.Context(), middleware.GetUserID(r.Context()), CheckoutInput{
		PlanID:   req.PlanID,
		Amount:   amountValue(req.Amount),
		Provider: req.Provider,
		Lang:     req.Lang,
		Email:    middleware.GetEmail(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthorized):
			response.Unauthorized(w, "Authentication required")
		case errors.Is(err, ErrInvalidPlan):
			response.BadRequest(w, pricing.AmountErrorMessage(err))
		case errors.Is(err, ErrInvalidProvider):
			response.BadRequest(w, "Unsupported payment provider")
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "CHECKOUT_FAILED", "Could not start checkout", err)
		}
		return
	}

	response.OK(w, result)
}

// Status handles GET /buy-tokens/status?orderId=
// @Summary Poll purchase status
// @Tags Payment
// @Produce json
// @Security BearerAuth
// @Param orderId query string false "Order id"
// @Param session_id query string false "Provider session id"
// @Success 200 {object} response.Response{data=StatusResult}
// @Router /buy-tokens/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := q.Get("orderId")
	if ref == "" {
		ref = q.Get("order_id")
	}
	if ref == "" {
		ref = q.Get("session_id")
	}

	result, err := h.service.Status(r.Context(), middleware.GetUserID(r.Context()), ref)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthorized):
			response.Unauthorized(w, "Authentication required")
		case errors.Is(err, ErrMissingOrderID):
			response.BadRequest(w, "orderId is required")
		default:
			errorhandler.Internal(r.Context(), w, err)
		}
		return
	}

	response.OK(w, result)
}

// Webhook handles POST /webhooks/{provider}
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "Unable to read body")
		return
	}

	err = h.service.HandleWebhook(r.Context(), provider, payload, r.Header)
	switch {
	case err == nil:
		response.Raw(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, ErrUnknownProvider):
		response.NotFound(w, "Unknown payment provider")
	case errors.Is(err, ErrInvalidSignature):
		response.BadRequest(w, "Invalid signature")
	default:
		// non-2xx makes the provider retry
		errorhandler.Internal(r.Context(), w, err)
	}
}

func amountValue(raw json.RawMessage) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return pricing.RawAmount(trimmed)
}
