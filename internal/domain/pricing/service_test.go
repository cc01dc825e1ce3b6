package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestResolveCustomPlan(t *testing.T) {
	svc := NewService(DefaultConfig(), nil)

	offer, err := svc.Resolve("custom_10000")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if offer.PriceCents != 13333 {
		t.Fatalf("expected price 13333, got %d", offer.PriceCents)
	}
	if offer.Tokens != 300 {
		t.Fatalf("expected 300 tokens, got %d", offer.Tokens)
	}
	if offer.Kind != OfferCustom {
		t.Fatalf("expected custom kind, got %s", offer.Kind)
	}

	for _, id := range []string{"custom_50", "custom_99", "custom_abc", "custom_", "custom_-500"} {
		if _, err := svc.Resolve(id); !errors.Is(err, ErrInvalidCustomAmount) {
			t.Fatalf("Resolve(%q): expected ErrInvalidCustomAmount, got %v", id, err)
		}
	}

	if _, err := svc.Resolve("custom_100"); err != nil {
		t.Fatalf("floor value should resolve: %v", err)
	}
}

func TestResolveCatalogPlan(t *testing.T) {
	catalog, err := ParseCatalog([]byte(`
plans:
  - id: pro
    name: Pro
    price_cents: 5000
    tokens: 200
    active: true
  - id: legacy
    name: Legacy
    price_cents: 1000
    tokens: 10
    active: false
  - id: free
    name: Free
    price_cents: 0
    tokens: 5
    active: true
`))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	svc := NewService(DefaultConfig(), catalog)

	offer, err := svc.Resolve("pro")
	if err != nil {
		t.Fatalf("Resolve(pro): %v", err)
	}
	if offer.PriceCents != 5000 || offer.Tokens != 200 || offer.Name != "Pro" {
		t.Fatalf("unexpected offer: %+v", offer)
	}

	for _, id := range []string{"legacy", "free", "missing", ""} {
		if _, err := svc.Resolve(id); !errors.Is(err, ErrPlanNotFound) {
			t.Fatalf("Resolve(%q): expected ErrPlanNotFound, got %v", id, err)
		}
	}

	plans := svc.Plans()
	if len(plans) != 1 || plans[0].ID != "pro" {
		t.Fatalf("expected only pro to be listed, got %+v", plans)
	}
}

func TestParseCatalogRejectsDuplicates(t *testing.T) {
	_, err := ParseCatalog([]byte(`
plans:
  - {id: a, name: A, price_cents: 100, tokens: 1, active: true}
  - {id: a, name: B, price_cents: 200, tokens: 2, active: true}
`))
	if !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
}

func TestOfferForAmount(t *testing.T) {
	svc := NewService(DefaultConfig(), nil)

	offer, err := svc.OfferForAmount("14.33")
	if err != nil {
		t.Fatalf("OfferForAmount: %v", err)
	}
	if offer.ID != "usd_1433" || offer.PriceCents != 1433 || offer.Tokens != 42 {
		t.Fatalf("unexpected offer: %+v", offer)
	}

	if _, err := svc.OfferForAmount("13.99"); !errors.Is(err, ErrAmountBelowMinimum) {
		t.Fatalf("expected ErrAmountBelowMinimum, got %v", err)
	}
	if _, err := svc.OfferForAmount("15.001"); !errors.Is(err, ErrAmountNotWholeCent) {
		t.Fatalf("expected ErrAmountNotWholeCent, got %v", err)
	}
	if _, err := svc.OfferForAmount("twenty"); !errors.Is(err, ErrNotANumber) {
		t.Fatalf("expected ErrNotANumber, got %v", err)
	}
}

func TestServiceUsesConfiguredRate(t *testing.T) {
	svc := NewService(Config{
		MinPurchase:  decimal.RequireFromString("5"),
		TokensPerUSD: 10,
	}, nil)

	offer, err := svc.OfferForAmount(5)
	if err != nil {
		t.Fatalf("OfferForAmount: %v", err)
	}
	if offer.Tokens != 50 {
		t.Fatalf("expected 50 tokens, got %d", offer.Tokens)
	}
	if svc.Config().CustomMinCents != 100 {
		t.Fatalf("unset fields should fall back to defaults")
	}
}

func TestPurchaseUpperLimits(t *testing.T) {
	svc := NewService(DefaultConfig(), nil)

	offer, err := svc.OfferForAmount("1000000.00")
	if err != nil {
		t.Fatalf("maximum purchase should be accepted: %v", err)
	}
	if offer.PriceCents != 100000000 || offer.Tokens != 3000000 {
		t.Fatalf("unexpected offer: %+v", offer)
	}

	offer, err = svc.Resolve("custom_100000000")
	if err != nil {
		t.Fatalf("custom maximum should resolve: %v", err)
	}
	if offer.PriceCents != 133333333 || offer.Tokens != 3000000 {
		t.Fatalf("unexpected custom offer: %+v", offer)
	}

	for _, id := range []string{"custom_100000001", "custom_9223372036854775807"} {
		_, err := svc.Resolve(id)
		if !errors.Is(err, ErrInvalidCustomAmount) || !errors.Is(err, ErrAmountTooLarge) {
			t.Fatalf("Resolve(%q): expected too large custom amount, got %v", id, err)
		}
	}
	if _, err := svc.Resolve("custom_99999999999999999999"); !errors.Is(err, ErrInvalidCustomAmount) {
		t.Fatalf("expected ErrInvalidCustomAmount for int64 overflow, got %v", err)
	}
}

func TestOfferForAmountRejectsCentOverflow(t *testing.T) {
	svc := NewService(Config{MaxPurchase: decimal.New(1, 18)}, nil)

	if _, err := svc.OfferForAmount("92233720368547758.08"); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}

	offer, err := svc.OfferForAmount("92233720368547758.07")
	if err != nil {
		t.Fatalf("largest representable amount: %v", err)
	}
	if offer.PriceCents <= 0 || offer.Tokens != 276701161105643274 {
		t.Fatalf("unexpected offer: %+v", offer)
	}
}
