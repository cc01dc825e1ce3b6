package pricing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nebula-studio/billing-api/internal/pkg/response"
)

// Handler exposes the public catalog and quote endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// PlansResponse describes everything a pricing page needs
type PlansResponse struct {
	Plans          []Offer `json:"plans"`
	MinPurchaseUSD string  `json:"min_purchase_usd"`
	MaxPurchaseUSD string  `json:"max_purchase_usd"`
	TokensPerUSD   int64   `json:"tokens_per_usd"`
	CustomMinCents int64   `json:"custom_min_cents"`
	CustomMaxCents int64   `json:"custom_max_cents"`
}

// Plans handles GET /buy-tokens/plans
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	cfg := h.service.Config()
	response.OK(w, PlansResponse{
		Plans:          h.service.Plans(),
		MinPurchaseUSD: cfg.MinPurchase.StringFixed(2),
		MaxPurchaseUSD: cfg.MaxPurchase.StringFixed(2),
		TokensPerUSD:   cfg.TokensPerUSD,
		CustomMinCents: cfg.CustomMinCents,
		CustomMaxCents: cfg.CustomMaxCents,
	})
}

type QuoteRequest struct {
	Amount json.RawMessage `json:"amount"`
}

type QuoteResponse struct {
	Amount     string `json:"amount"`
	PriceCents int64  `json:"price_cents"`
	Tokens     int64  `json:"tokens"`
}

const maxQuoteBody = 4 << 10

// Quote handles POST /buy-tokens/quote
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQuoteBody)
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	offer, err := h.service.OfferForAmount(RawAmount(req.Amount))
	if err != nil {
		response.BadRequest(w, AmountErrorMessage(err))
		return
	}

	response.OK(w, QuoteResponse{
		Amount:     FromCents(offer.PriceCents).StringFixed(2),
		PriceCents: offer.PriceCents,
		Tokens:     offer.Tokens,
	})
}

// RawAmount unwraps a JSON amount that may be sent as a number or a string
func RawAmount(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return json.Number(string(raw))
}

// AmountErrorMessage turns pricing errors into user-facing text
func AmountErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotANumber):
		return "Amount must be a number"
	case errors.Is(err, ErrAmountBelowMinimum):
		return "Amount is below the minimum purchase"
	case errors.Is(err, ErrAmountNotWholeCent):
		return "Amount must have at most two decimal places"
	case errors.Is(err, ErrAmountTooLarge):
		return "Amount exceeds the maximum purchase"
	case errors.Is(err, ErrInvalidCustomAmount):
		return "Invalid custom amount"
	case errors.Is(err, ErrPlanNotFound):
		return "Plan not found"
	default:
		return "Invalid amount"
	}
}
