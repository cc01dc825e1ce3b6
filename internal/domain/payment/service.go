package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/nebula-studio/billing-api/internal/domain/credit"
	"github.com/nebula-studio/billing-api/internal/domain/pricing"
	"github.com/nebula-studio/billing-api/internal/pkg/metrics"
	pkgpayment "github.com/nebula-studio/billing-api/internal/pkg/payment"
)

// Ledger is the part of the credit service the payment flow needs
type Ledger interface {
	CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, tokens int64, entry credit.Entry) (*credit.Transaction, error)
	FindByExternalID(ctx context.Context, userID uuid.UUID, externalID string) (*credit.Transaction, error)
	EnsureProfile(ctx context.Context, userID uuid.UUID, email string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*credit.Profile, error)
}

// Config holds redirect targets and defaults
type Config struct {
	FrontendURL     string
	BackendURL      string
	DefaultProvider string
	DefaultLang     string
	// SupportedLangs limits redirect locales; empty accepts any
	SupportedLangs []string
}

// Service handles checkout, webhook crediting and status polling
type Service struct {
	repo      Repository
	ledger    Ledger
	pricing   *pricing.Service
	gateways  *pkgpayment.Registry
	metrics   *metrics.Payments
	notifiers []Notifier
	config    Config
}

// NewService creates payment service
func NewService(repo Repository, ledger Ledger, pricingService *pricing.Service, gateways *pkgpayment.Registry, config Config) *Service {
	if config.DefaultProvider == "" {
		config.DefaultProvider = pkgpayment.ProviderStripe
	}
	if config.DefaultLang == "" {
		config.DefaultLang = "en"
	}
	config.FrontendURL = strings.TrimRight(config.FrontendURL, "/")
	config.BackendURL = strings.TrimRight(config.BackendURL, "/")

	return &Service{
		repo:     repo,
		ledger:   ledger,
		pricing:  pricingService,
		gateways: gateways,
		config:   config,
	}
}

// SetMetrics sets the counters used for checkout and webhook outcomes
func (s *Service) SetMetrics(m *metrics.Payments) {
	s.metrics = m
}

// AddNotifier registers a post-credit hook
func (s *Service) AddNotifier(n Notifier) {
	if n != nil {
		s.notifiers = append(s.notifiers, n)
	}
}

// ProviderName maps the public payment method names onto gateway names
func ProviderName(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "card", pkgpayment.ProviderStripe:
		return pkgpayment.ProviderStripe
	case "crypto", pkgpayment.ProviderNowPayments:
		return pkgpayment.ProviderNowPayments
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

// Checkout records a pending purchase and opens a hosted checkout session for it
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*CheckoutResult, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	offer, err := s.resolveOffer(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}

	providerName := ProviderName(in.Provider)
	if providerName == "" {
		providerName = s.config.DefaultProvider
	}
	gateway, err := s.gateways.Get(providerName)
	if err != nil {
		return nil, ErrInvalidProvider
	}

	if in.Email != "" {
		if err := s.ledger.EnsureProfile(ctx, userID, in.Email); err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("profile upsert before checkout failed")
		}
	}

	lang := s.lang(in.Lang)

	orderID := uuid.NewString()
	ev := &PaymentEvent{
		OrderID:    orderID,
		UserID:     userID,
		Provider:   gateway.Name(),
		PlanID:     offer.ID,
		PlanName:   offer.Name,
		PriceCents: offer.PriceCents,
		Currency:   offer.Currency,
		Tokens:     offer.Tokens,
	}
	if err := s.repo.CreatePending(ctx, ev); err != nil {
		s.metrics.Checkout(gateway.Name(), "error")
		return nil, fmt.Errorf("%w: record pending payment: %v", ErrCheckoutFailed, err)
	}

	session, err := gateway.CreateCheckout(ctx, pkgpayment.CheckoutRequest{
		OrderID:     orderID,
		AmountCents: offer.PriceCents,
		Currency:    offer.Currency,
		ProductName: offer.Name,
		Description: fmt.Sprintf("%d tokens", offer.Tokens),
		CustomerRef: in.Email,
		SuccessURL:  s.successURL(lang, orderID),
		CancelURL:   s.cancelURL(lang),
		CallbackURL: s.config.BackendURL + "/webhooks/" + gateway.Name(),
		Metadata: map[string]string{
			"order_id":  orderID,
			"user_id":   userID.String(),
			"tokens":    strconv.FormatInt(offer.Tokens, 10),
			"plan_id":   offer.ID,
			"plan_name": offer.Name,
			"currency":  offer.Currency,
		},
	})
	if err != nil {
		if _, closeErr := s.repo.MarkClosed(ctx, orderID, EventFailed); closeErr != nil {
			log.Error().Err(closeErr).Str("order_id", orderID).Msg("failed to close payment after gateway error")
		}
		s.metrics.Checkout(gateway.Name(), "error")
		return nil, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}

	// the webhook correlates by order id, so a lost session id only degrades status lookups
	if err := s.repo.AttachSession(ctx, orderID, session.SessionID); err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("failed to store checkout session id")
	}

	s.metrics.Checkout(gateway.Name(), "created")
	log.Info().
		Str("order_id", orderID).
		Str("user_id", userID.String()).
		Str("provider", gateway.Name()).
		Str("plan_id", offer.ID).
		Int64("tokens", offer.Tokens).
		Msg("checkout session created")

	return &CheckoutResult{
		SessionID:  session.SessionID,
		OrderID:    orderID,
		URL:        session.URL,
		Tokens:     offer.Tokens,
		PriceCents: offer.PriceCents,
	}, nil
}

func (s *Service) resolveOffer(in CheckoutInput) (*pricing.Offer, error) {
	planID := strings.TrimSpace(in.PlanID)
	if planID != "" {
		return s.pricing.Resolve(planID)
	}
	if in.Amount == nil {
		return nil, pricing.ErrPlanNotFound
	}
	return s.pricing.OfferForAmount(in.Amount)
}

func (s *Service) lang(requested string) string {
	requested = strings.ToLower(strings.TrimSpace(requested))
	if requested == "" {
		return s.config.DefaultLang
	}
	if len(s.config.SupportedLangs) == 0 || slices.Contains(s.config.SupportedLangs, requested) {
		return requested
	}
	return s.config.DefaultLang
}

func (s *Service) successURL(lang, orderID string) string {
	return fmt.Sprintf("%s/%s/buy-tokens/success?orderId=%s", s.config.FrontendURL, lang, url.QueryEscape(orderID))
}

func (s *Service) cancelURL(lang string) string {
	return fmt.Sprintf("%s/%s/buy-tokens?canceled=1", s.config.FrontendURL, lang)
}

// HandleWebhook verifies a provider notification and applies it at most once.
// A nil error means the provider should receive a 2xx acknowledgement.
func (s *Service) HandleWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	gateway, err := s.gateways.Get(provider)
	if err != nil {
		return ErrUnknownProvider
	}

	ev, err := gateway.ParseWebhook(payload, headers)
	if err != nil {
		if errors.Is(err, pkgpayment.ErrInvalidSignature) {
			s.metrics.Webhook(provider, "rejected")
			log.Warn().Err(err).Str("provider", provider).Msg("webhook signature rejected")
			return ErrInvalidSignature
		}
		s.metrics.Webhook(provider, "dropped")
		log.Warn().Err(err).Str("provider", provider).Msg("undecodable webhook dropped")
		return nil
	}

	logger := log.With().
		Str("provider", provider).
		Str("event_id", ev.EventID).
		Str("event_type", ev.EventType).
		Str("order_id", ev.OrderID).
		Logger()

	switch ev.Outcome {
	case pkgpayment.OutcomeCompleted:
		return s.applyCompleted(ctx, ev)
	case pkgpayment.OutcomeFailed, pkgpayment.OutcomeExpired:
		status := EventFailed
		if ev.Outcome == pkgpayment.OutcomeExpired {
			status = EventExpired
		}
		if ev.OrderID == "" {
			s.metrics.Webhook(provider, "dropped")
			return nil
		}
		closed, err := s.repo.MarkClosed(ctx, ev.OrderID, status)
		if err != nil {
			logger.Error().Err(err).Msg("failed to close payment")
			return ErrStoreUnavailable
		}
		s.metrics.Webhook(provider, string(ev.Outcome))
		logger.Info().Bool("closed", closed).Msg("payment closed without credit")
		return nil
	default:
		s.metrics.Webhook(provider, "ignored")
		logger.Debug().Msg("webhook event ignored")
		return nil
	}
}

func (s *Service) applyCompleted(ctx context.Context, ev *pkgpayment.WebhookEvent) error {
	logger := log.With().Str("provider", ev.Provider).Str("event_id", ev.EventID).Str("order_id", ev.OrderID).Logger()

	if ev.OrderID == "" {
		s.metrics.Webhook(ev.Provider, "dropped")
		logger.Warn().Msg("completed webhook without order id dropped")
		return nil
	}

	pe, err := s.repo.GetByOrderID(ctx, ev.OrderID)
	if err != nil {
		logger.Error().Err(err).Msg("payment lookup failed")
		return ErrStoreUnavailable
	}
	if pe == nil {
		s.metrics.Webhook(ev.Provider, "dropped")
		logger.Warn().Msg("completed webhook for unknown order dropped")
		return nil
	}
	if reason := mismatch(pe, ev); reason != "" {
		s.metrics.Webhook(ev.Provider, "dropped")
		logger.Warn().Str("reason", reason).Msg("completed webhook does not match recorded purchase")
		return nil
	}
	if pe.IsProcessed() {
		s.metrics.Webhook(ev.Provider, "duplicate")
		logger.Info().Msg("payment already processed, skipping duplicate webhook")
		return nil
	}

	tx, err := s.repo.BeginTxx(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("begin credit transaction failed")
		return ErrStoreUnavailable
	}
	defer tx.Rollback()

	won, err := s.repo.MarkProcessedTx(ctx, tx, pe.OrderID, ev.EventID, pe.Tokens)
	if err != nil {
		logger.Error().Err(err).Msg("mark processed failed")
		return ErrStoreUnavailable
	}
	if !won {
		s.metrics.Webhook(ev.Provider, "duplicate")
		logger.Info().Msg("payment processed by a concurrent delivery")
		return nil
	}

	_, err = s.ledger.CreditTx(ctx, tx, pe.UserID, pe.Tokens, credit.Entry{
		AmountCents: pe.PriceCents,
		Currency:    pe.Currency,
		Provider:    pe.Provider,
		ExternalID:  pe.OrderID,
		Description: fmt.Sprintf("Purchase: %s", pe.PlanName),
	})
	if errors.Is(err, credit.ErrDuplicateExternalID) {
		s.metrics.Webhook(ev.Provider, "duplicate")
		logger.Info().Msg("ledger already holds this order")
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Msg("credit tokens failed")
		return ErrStoreUnavailable
	}

	if err := tx.Commit(); err != nil {
		logger.Error().Err(err).Msg("commit credit failed")
		return ErrStoreUnavailable
	}

	s.metrics.Webhook(ev.Provider, "credited")
	s.metrics.Credited(pe.Provider, pe.Tokens)
	logger.Info().
		Str("user_id", pe.UserID.String()).
		Int64("tokens", pe.Tokens).
		Msg("tokens credited")

	s.notify(ctx, pe)
	return nil
}

// mismatch compares what the provider reports with the recorded purchase
func mismatch(pe *PaymentEvent, ev *pkgpayment.WebhookEvent) string {
	if ev.Provider != "" && ev.Provider != pe.Provider {
		return "provider"
	}
	if uid, ok := ev.Metadata["user_id"]; ok && uid != pe.UserID.String() {
		return "user_id"
	}
	if tokens, ok := ev.Metadata["tokens"]; ok && tokens != strconv.FormatInt(pe.Tokens, 10) {
		return "tokens"
	}
	if ev.Currency != "" && !strings.EqualFold(ev.Currency, pe.Currency) {
		return "currency"
	}
	if ev.AmountCents > 0 && ev.AmountCents < pe.PriceCents {
		return "amount"
	}
	return ""
}

func (s *Service) notify(ctx context.Context, pe *PaymentEvent) {
	if len(s.notifiers) == 0 {
		return
	}

	receipt := Receipt{
		UserID:      pe.UserID,
		OrderID:     pe.OrderID,
		Provider:    pe.Provider,
		PlanName:    pe.PlanName,
		Tokens:      pe.Tokens,
		AmountCents: pe.PriceCents,
		Currency:    pe.Currency,
		CreditedAt:  time.Now().UTC(),
	}
	if profile, err := s.ledger.GetProfile(ctx, pe.UserID); err == nil {
		receipt.Email = profile.Email
	}

	for _, n := range s.notifiers {
		if err := n.PurchaseCredited(ctx, receipt); err != nil {
			log.Warn().Err(err).Str("order_id", pe.OrderID).Msg("post-credit notification failed")
		}
	}
}

// Status reports whether tokens for an order or session have been credited to the caller
func (s *Service) Status(ctx context.Context, userID uuid.UUID, ref string) (*StatusResult, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrMissingOrderID
	}

	pe, err := s.repo.FindForUser(ctx, userID, ref)
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	if pe != nil {
		if pe.IsProcessed() {
			tokens := pe.TokensAdded
			return &StatusResult{Status: StatusFinished, Tokens: &tokens}, nil
		}
		return &StatusResult{Status: StatusPending}, nil
	}

	tx, err := s.ledger.FindByExternalID(ctx, userID, ref)
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	if tx != nil {
		tokens := tx.TokensGranted
		return &StatusResult{Status: StatusFinished, Tokens: &tokens}, nil
	}
	return &StatusResult{Status: StatusPending}, nil
}
