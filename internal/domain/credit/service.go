package credit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// GrantMeta describes a manual grant
type GrantMeta struct {
	AdminID uuid.UUID
	Reason  string
}

// Service is the token ledger API used by handlers and the payment flow
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreditTx credits a purchase inside an outer transaction (payment webhook path)
func (s *Service) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, tokens int64, entry Entry) (*Transaction, error) {
	if userID == uuid.Nil {
		return nil, ErrUserNotFound
	}
	return s.repo.CreditTx(ctx, tx, userID, tokens, entry)
}

// Grant adds tokens on behalf of an administrator and returns the new balance
func (s *Service) Grant(ctx context.Context, userID uuid.UUID, tokens int64, meta GrantMeta) (int64, error) {
	if tokens <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.repo.Grant(ctx, userID, tokens, Entry{
		Currency:    "usd",
		Provider:    ProviderAdmin,
		ExternalID:  "admin_" + uuid.NewString(),
		Description: fmt.Sprintf("Admin grant by %s: %s", meta.AdminID, meta.Reason),
	})
}

func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// FindByExternalID looks up the ledger row written for a correlation id
func (s *Service) FindByExternalID(ctx context.Context, userID uuid.UUID, externalID string) (*Transaction, error) {
	return s.repo.FindByExternalID(ctx, userID, externalID)
}

// EnsureProfile registers a user coming from the hosted identity provider
func (s *Service) EnsureProfile(ctx context.Context, userID uuid.UUID, email string) error {
	return s.repo.UpsertProfile(ctx, userID, email)
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// ListTransactions clamps the limit to 1..100, defaulting to 20
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, Pagination{Limit: limit, Offset: offset})
}
