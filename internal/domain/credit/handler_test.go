package credit_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nebula-studio/billing-api/internal/domain/credit"
	"github.com/nebula-studio/billing-api/internal/middleware"
	"github.com/nebula-studio/billing-api/internal/pkg/database/dbtest"
)

func TestBalanceAndTransactionsHandlers(t *testing.T) {
	db := dbtest.NewSQLite(t)
	svc := credit.NewService(credit.NewRepository(db))
	userID := uuid.New()
	requireNoError(t, creditInTx(t, db, svc, userID, 42, "order-1"))
	requireNoError(t, creditInTx(t, db, svc, userID, 9, "order-2"))

	var current uuid.UUID
	auth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), current, "", "")))
		})
	}
	r := chi.NewRouter()
	credit.NewHandler(svc).RegisterRoutes(r, auth)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	current = userID
	if w := get("/balance"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"tokens":51`) {
		t.Fatalf("unexpected balance response %d %s", w.Code, w.Body.String())
	}
	w := get("/transactions?limit=1")
	if w.Code != http.StatusOK || strings.Count(w.Body.String(), `"external_id"`) != 1 {
		t.Fatalf("unexpected transactions response %d %s", w.Code, w.Body.String())
	}

	current = uuid.Nil
	if w := get("/balance"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
