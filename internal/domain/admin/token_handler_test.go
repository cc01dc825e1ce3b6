package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/nebula-studio/billing-api/internal/domain/credit"
	"github.com/nebula-studio/billing-api/internal/middleware"
	"github.com/nebula-studio/billing-api/internal/pkg/jwt"
)

type stubGranter struct {
	err     error
	userID  uuid.UUID
	tokens  int64
	meta    credit.GrantMeta
	balance int64
}

func (s *stubGranter) Grant(_ context.Context, userID uuid.UUID, tokens int64, meta credit.GrantMeta) (int64, error) {
	s.userID, s.tokens, s.meta = userID, tokens, meta
	if s.err != nil {
		return 0, s.err
	}
	return s.balance + tokens, nil
}

func asRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), uuid.New(), role, "")))
		})
	}
}

func grant(h http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return w
}

func TestGrantTokens(t *testing.T) {
	stub := &stubGranter{balance: 10}
	router := NewTokenHandler(stub).Routes(asRole(jwt.RoleAdmin))
	userID := uuid.New()

	w := grant(router, "/users/"+userID.String()+"/tokens/grant", `{"amount":50,"reason":"support refund"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"balance":60`) {
		t.Fatalf("expected new balance in body, got %s", w.Body.String())
	}
	if stub.userID != userID || stub.tokens != 50 || stub.meta.Reason != "support refund" {
		t.Fatalf("unexpected grant call: %+v", stub)
	}
}

func TestGrantTokensValidation(t *testing.T) {
	router := NewTokenHandler(&stubGranter{}).Routes(asRole(jwt.RoleAdmin))
	userID := uuid.New().String()

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"bad id", "/users/nope/tokens/grant", `{"amount":1,"reason":"abc"}`, http.StatusBadRequest},
		{"bad json", "/users/" + userID + "/tokens/grant", `{`, http.StatusBadRequest},
		{"zero amount", "/users/" + userID + "/tokens/grant", `{"amount":0,"reason":"abc"}`, http.StatusUnprocessableEntity},
		{"too large", "/users/" + userID + "/tokens/grant", `{"amount":1000001,"reason":"abc"}`, http.StatusUnprocessableEntity},
		{"no reason", "/users/" + userID + "/tokens/grant", `{"amount":5}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := grant(router, tc.path, tc.body); w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestGrantTokensUnknownUserAndNonAdmin(t *testing.T) {
	router := NewTokenHandler(&stubGranter{err: credit.ErrUserNotFound}).Routes(asRole(jwt.RoleAdmin))
	if w := grant(router, "/users/"+uuid.NewString()+"/tokens/grant", `{"amount":5,"reason":"abc"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	router = NewTokenHandler(&stubGranter{}).Routes(asRole("authenticated"))
	if w := grant(router, "/users/"+uuid.NewString()+"/tokens/grant", `{"amount":5,"reason":"abc"}`); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
