package payment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nebula-studio/billing-api/internal/middleware"
	pkgpayment "github.com/nebula-studio/billing-api/internal/pkg/payment"
)

// fakeAuth authenticates requests carrying X-User-ID
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get("X-User-ID"))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), id, "", "")))
	})
}

func passThrough(next http.Handler) http.Handler { return next }

func newTestRouter(f *fixture) http.Handler {
	h := NewHandler(f.svc)
	r := chi.NewRouter()
	r.Route("/buy-tokens", func(r chi.Router) {
		h.RegisterRoutes(r, fakeAuth, passThrough)
	})
	r.Mount("/webhooks", h.WebhookRoutes())
	return r
}

func doRequest(h http.Handler, method, path, body string, userID uuid.UUID, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCheckoutHandler(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)
	userID := uuid.New()

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"plan", `{"planId":"starter","provider":"card","lang":"en"}`, http.StatusOK},
		{"numeric amount", `{"amount":25}`, http.StatusOK},
		{"string amount", `{"amount":"$25.50"}`, http.StatusOK},
		{"below minimum", `{"amount":"13.99"}`, http.StatusBadRequest},
		{"unknown plan", `{"planId":"gold"}`, http.StatusBadRequest},
		{"null amount", `{"amount":null}`, http.StatusBadRequest},
		{"bad provider", `{"planId":"starter","provider":"paypal"}`, http.StatusUnprocessableEntity},
		{"bad lang", `{"planId":"starter","lang":"english"}`, http.StatusUnprocessableEntity},
		{"bad json", `{`, http.StatusBadRequest},
		{"huge exponent", `{"amount":"1e400000000"}`, http.StatusBadRequest},
		{"cent overflow", `{"amount":"92233720368547758.08"}`, http.StatusBadRequest},
		{"custom overflow", `{"planId":"custom_9223372036854775807"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/buy-tokens/checkout", tc.body, userID, nil)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
		})
	}

	if w := doRequest(router, http.MethodPost, "/buy-tokens/checkout", `{"planId":"starter"}`, uuid.Nil, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", w.Code)
	}
}

func TestCheckoutHandlerGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = http.ErrHandlerTimeout
	w := doRequest(newTestRouter(f), http.MethodPost, "/buy-tokens/checkout", `{"planId":"starter"}`, uuid.New(), nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "timeout") {
		t.Fatalf("gateway error leaked to client: %s", w.Body.String())
	}
}

func TestWebhookAndStatusHandlers(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)
	userID := uuid.New()

	w := doRequest(router, http.MethodPost, "/buy-tokens/checkout", `{"planId":"starter"}`, userID, nil)
	var checkout struct {
		Data CheckoutResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &checkout); err != nil || checkout.Data.OrderID == "" {
		t.Fatalf("decode checkout: %v %s", err, w.Body.String())
	}
	orderID := checkout.Data.OrderID

	w = doRequest(router, http.MethodGet, "/buy-tokens/status?orderId="+orderID, "", userID, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"pending"`) {
		t.Fatalf("expected pending, got %d %s", w.Code, w.Body.String())
	}

	payload, _ := json.Marshal(pkgpayment.WebhookEvent{EventID: "evt_1", Outcome: pkgpayment.OutcomeCompleted, OrderID: orderID})

	w = doRequest(router, http.MethodPost, "/webhooks/stripe", string(payload), uuid.Nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing signature, got %d", w.Code)
	}

	signed := http.Header{testSignatureHeader: []string{"ok"}}
	for i := 0; i < 2; i++ {
		w = doRequest(router, http.MethodPost, "/webhooks/stripe", string(payload), uuid.Nil, signed)
		if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"received":true}` {
			t.Fatalf("expected ack, got %d %s", w.Code, w.Body.String())
		}
	}

	w = doRequest(router, http.MethodGet, "/buy-tokens/status?session_id=cs_"+orderID, "", userID, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"finished"`) || !strings.Contains(w.Body.String(), `"tokens":42`) {
		t.Fatalf("expected finished with 42 tokens, got %d %s", w.Code, w.Body.String())
	}

	if w = doRequest(router, http.MethodGet, "/buy-tokens/status", "", userID, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without order id, got %d", w.Code)
	}
	if w = doRequest(router, http.MethodPost, "/webhooks/paypal", `{}`, uuid.Nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown provider, got %d", w.Code)
	}
	if got := f.balance(t, userID); got != 42 {
		t.Fatalf("expected 42 tokens, got %d", got)
	}
}
