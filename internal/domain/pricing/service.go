package pricing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// CustomPlanPrefix marks identifiers that encode a credited amount in cents
	CustomPlanPrefix = "custom_"
	// AmountOfferPrefix marks offers built from a raw USD amount
	AmountOfferPrefix = "usd_"

	Currency = "usd"
)

// OfferKind says which resolution path produced an offer
type OfferKind string

const (
	OfferCatalog OfferKind = "catalog"
	OfferCustom  OfferKind = "custom"
	OfferAmount  OfferKind = "amount"
)

// Offer is a fully priced purchase option
type Offer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Tokens     int64     `json:"tokens"`
	Currency   string    `json:"currency"`
	Kind       OfferKind `json:"kind"`
}

// Config holds the pricing policy
type Config struct {
	MinPurchase    decimal.Decimal
	MaxPurchase    decimal.Decimal
	TokensPerUSD   int64
	CustomMargin   decimal.Decimal
	CustomMinCents int64
	CustomMaxCents int64
}

// DefaultConfig returns the canonical policy: $14 minimum, $1M maximum, 3 tokens per USD,
// 0.75 margin, custom plans between 100 cents and the maximum purchase
func DefaultConfig() Config {
	return Config{
		MinPurchase:    DefaultMinPurchase,
		MaxPurchase:    DefaultMaxPurchase,
		TokensPerUSD:   DefaultTokensPerUSD,
		CustomMargin:   decimal.RequireFromString("0.75"),
		CustomMinCents: 100,
		CustomMaxCents: ToCents(DefaultMaxPurchase),
	}
}

// Service resolves plan identifiers and raw amounts into offers
type Service struct {
	cfg     Config
	catalog *Catalog
}

func NewService(cfg Config, catalog *Catalog) *Service {
	def := DefaultConfig()
	if cfg.MinPurchase.IsZero() {
		cfg.MinPurchase = def.MinPurchase
	}
	if !cfg.MaxPurchase.IsPositive() {
		cfg.MaxPurchase = def.MaxPurchase
	}
	if cfg.TokensPerUSD <= 0 {
		cfg.TokensPerUSD = def.TokensPerUSD
	}
	if !cfg.CustomMargin.IsPositive() {
		cfg.CustomMargin = def.CustomMargin
	}
	if cfg.CustomMinCents <= 0 {
		cfg.CustomMinCents = def.CustomMinCents
	}
	if cfg.CustomMaxCents <= 0 {
		cfg.CustomMaxCents = def.CustomMaxCents
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Service{cfg: cfg, catalog: catalog}
}

func (s *Service) Config() Config { return s.cfg }

// ValidatePurchaseAmount returns the specific reason raw is not purchasable
func (s *Service) ValidatePurchaseAmount(raw any) error {
	return validatePurchaseAmount(raw, s.cfg.MinPurchase, s.cfg.MaxPurchase)
}

// OfferForAmount runs a raw USD amount through validation and the token converter
func (s *Service) OfferForAmount(raw any) (*Offer, error) {
	if err := s.ValidatePurchaseAmount(raw); err != nil {
		return nil, err
	}
	amount, err := NormalizeAmount(raw)
	if err != nil {
		return nil, err
	}
	cents, err := Cents(amount)
	if err != nil {
		return nil, err
	}
	tokens := TokensForCents(cents, s.cfg.TokensPerUSD)
	return &Offer{
		ID:         AmountOfferPrefix + strconv.FormatInt(cents, 10),
		Name:       fmt.Sprintf("%d tokens", tokens),
		PriceCents: cents,
		Tokens:     tokens,
		Currency:   Currency,
		Kind:       OfferAmount,
	}, nil
}

// Resolve maps a plan identifier to an offer. custom_<cents> identifiers are priced
// at credited/margin; anything else is looked up in the catalog.
func (s *Service) Resolve(planID string) (*Offer, error) {
	planID = strings.TrimSpace(planID)
	if strings.HasPrefix(planID, CustomPlanPrefix) {
		return s.resolveCustom(strings.TrimPrefix(planID, CustomPlanPrefix))
	}

	p, err := s.catalog.Lookup(planID)
	if err != nil {
		return nil, err
	}
	return &Offer{
		ID:         p.ID,
		Name:       p.Name,
		PriceCents: p.PriceCents,
		Tokens:     p.Tokens,
		Currency:   Currency,
		Kind:       OfferCatalog,
	}, nil
}

func (s *Service) resolveCustom(suffix string) (*Offer, error) {
	credited, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil || credited < s.cfg.CustomMinCents {
		return nil, ErrInvalidCustomAmount
	}
	if credited > s.cfg.CustomMaxCents {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCustomAmount, ErrAmountTooLarge)
	}
	price := decimal.NewFromInt(credited).Div(s.cfg.CustomMargin).Round(0).IntPart()
	tokens := TokensForCents(credited, s.cfg.TokensPerUSD)
	if tokens <= 0 {
		return nil, ErrInvalidCustomAmount
	}
	return &Offer{
		ID:         CustomPlanPrefix + suffix,
		Name:       fmt.Sprintf("Custom %d tokens", tokens),
		PriceCents: price,
		Tokens:     tokens,
		Currency:   Currency,
		Kind:       OfferCustom,
	}, nil
}

// Plans lists the active catalog as offers
func (s *Service) Plans() []Offer {
	active := s.catalog.Active()
	out := make([]Offer, 0, len(active))
	for _, p := range active {
		out = append(out, Offer{
			ID:         p.ID,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Tokens:     p.Tokens,
			Currency:   Currency,
			Kind:       OfferCatalog,
		})
	}
	return out
}
