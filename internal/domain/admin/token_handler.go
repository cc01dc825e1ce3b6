package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nebula-studio/billing-api/internal/domain/credit"
	"github.com/nebula-studio/billing-api/internal/middleware"
	"github.com/nebula-studio/billing-api/internal/pkg/errorhandler"
	"github.com/nebula-studio/billing-api/internal/pkg/logger"
	"github.com/nebula-studio/billing-api/internal/pkg/response"
	"github.com/nebula-studio/billing-api/internal/pkg/validator"
)

// TokenGranter is the part of the credit service used for manual grants
type TokenGranter interface {
	Grant(ctx context.Context, userID uuid.UUID, tokens int64, meta credit.GrantMeta) (int64, error)
}

// GrantTokensRequest represents the request to grant tokens
type GrantTokensRequest struct {
	Amount int64  `json:"amount" validate:"required,min=1,max=1000000"`
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type GrantTokensResponse struct {
	UserID  uuid.UUID `json:"user_id"`
	Granted int64     `json:"granted"`
	Balance int64     `json:"balance"`
}

// TokenHandler handles admin token operations
type TokenHandler struct {
	credits TokenGranter
}

func NewTokenHandler(credits TokenGranter) *TokenHandler {
	return &TokenHandler{credits: credits}
}

// GrantTokens handles POST /admin/users/{id}/tokens/grant
func (h *TokenHandler) GrantTokens(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil || userID == uuid.Nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	var req GrantTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	adminID := middleware.GetUserID(r.Context())
	balance, err := h.credits.Grant(r.Context(), userID, req.Amount, credit.GrantMeta{
		AdminID: adminID,
		Reason:  req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, credit.ErrUserNotFound):
			response.NotFound(w, "User not found")
		case errors.Is(err, credit.ErrInvalidAmount):
			response.BadRequest(w, "Invalid token amount")
		default:
			errorhandler.Internal(r.Context(), w, err)
		}
		return
	}

	logger.FromContext(r.Context()).Info().
		Str("action", "tokens.grant").
		Str("admin_id", adminID.String()).
		Str("user_id", userID.String()).
		Int64("amount", req.Amount).
		Str("reason", req.Reason).
		Msg("admin action")

	response.OK(w, GrantTokensResponse{UserID: userID, Granted: req.Amount, Balance: balance})
}
