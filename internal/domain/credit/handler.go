package credit

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/nebula-studio/billing-api/internal/middleware"
	"github.com/nebula-studio/billing-api/internal/pkg/errorhandler"
	"github.com/nebula-studio/billing-api/internal/pkg/response"
)

// Handler serves the purchaser's balance and ledger history
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type BalanceResponse struct {
	Tokens int64 `json:"tokens"`
}

// Balance handles GET /buy-tokens/balance
// @Summary Current token balance
// @Tags Tokens
// @Security BearerAuth
// @Success 200 {object} response.Response{data=BalanceResponse}
// @Router /buy-tokens/balance [get]
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		errorhandler.Internal(r.Context(), w, err)
		return
	}
	response.OK(w, BalanceResponse{Tokens: balance})
}

// Transactions handles GET /buy-tokens/transactions?limit=&offset=
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.service.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		errorhandler.Internal(r.Context(), w, err)
		return
	}
	response.OK(w, map[string]interface{}{
		"items": items,
	})
}
