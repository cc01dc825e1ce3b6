package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("TOKENS_PER_USD", "not-a-number")

	cfg := Load()

	if cfg.TokensPerUSD != 3 {
		t.Fatalf("expected fallback rate 3, got %d", cfg.TokensPerUSD)
	}
	if cfg.MinPurchaseUSD.StringFixed(2) != "14.00" || cfg.CustomPlanMargin.String() != "0.75" {
		t.Fatalf("unexpected pricing defaults: %s %s", cfg.MinPurchaseUSD, cfg.CustomPlanMargin)
	}
	if cfg.MaxPurchaseUSD.StringFixed(2) != "1000000.00" || cfg.CustomPlanMaxCents != 100000000 {
		t.Fatalf("unexpected pricing limits: %s %d", cfg.MaxPurchaseUSD, cfg.CustomPlanMaxCents)
	}
	if cfg.StripeEnabled() {
		t.Fatal("stripe must be disabled without a key")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CHECKOUT_RATE_WINDOW", "30s")
	t.Setenv("MIN_PURCHASE_USD", "20")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec")

	cfg := Load()

	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.CheckoutRateWindow != 30*time.Second {
		t.Fatalf("unexpected window %s", cfg.CheckoutRateWindow)
	}
	if cfg.MinPurchaseUSD.StringFixed(2) != "20.00" {
		t.Fatalf("unexpected minimum %s", cfg.MinPurchaseUSD)
	}
	if !cfg.StripeEnabled() {
		t.Fatal("stripe should be enabled")
	}
}

func TestParseStringSlice(t *testing.T) {
	if got := parseStringSlice(""); len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
	if got := parseStringSlice("a,,b"); len(got) != 2 {
		t.Fatalf("expected 2 items, got %v", got)
	}
}
