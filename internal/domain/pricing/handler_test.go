package pricing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestQuoteHandler(t *testing.T) {
	h := NewHandler(NewService(DefaultConfig(), nil))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantTokens int64
	}{
		{"numeric amount", `{"amount": 14.33}`, http.StatusOK, 42},
		{"string amount", `{"amount": "$20"}`, http.StatusOK, 60},
		{"below minimum", `{"amount": "13.99"}`, http.StatusBadRequest, 0},
		{"not a number", `{"amount": "abc"}`, http.StatusBadRequest, 0},
		{"missing", `{}`, http.StatusBadRequest, 0},
		{"bad json", `{`, http.StatusBadRequest, 0},
		{"huge exponent string", `{"amount": "1e400000000"}`, http.StatusBadRequest, 0},
		{"huge exponent number", `{"amount": 1e400000000}`, http.StatusBadRequest, 0},
		{"int64 overflow", `{"amount": "92233720368547758.08"}`, http.StatusBadRequest, 0},
		{"above maximum", `{"amount": 1000000.01}`, http.StatusBadRequest, 0},
		{"oversized body", `{"amount": "` + strings.Repeat("1", 8<<10) + `"}`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/buy-tokens/quote", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			start := time.Now()
			h.Quote(rr, req)
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Fatalf("quote took %s", elapsed)
			}

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp struct {
				Data QuoteResponse `json:"data"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Data.Tokens != tt.wantTokens {
				t.Fatalf("expected %d tokens, got %d", tt.wantTokens, resp.Data.Tokens)
			}
		})
	}
}

func TestPlansHandler(t *testing.T) {
	h := NewHandler(NewService(DefaultConfig(), nil))

	rr := httptest.NewRecorder()
	h.Plans(rr, httptest.NewRequest(http.MethodGet, "/buy-tokens/plans", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		Data PlansResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.MinPurchaseUSD != "14.00" || resp.Data.TokensPerUSD != 3 {
		t.Fatalf("unexpected pricing rules: %+v", resp.Data)
	}
	if len(resp.Data.Plans) == 0 {
		t.Fatal("expected default catalog plans")
	}
}
