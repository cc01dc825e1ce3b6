package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (c *memoryCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int64)
	}
	c.counts[key]++
	return c.counts[key], nil
}

func throttled(counter Counter, limit int64) http.Handler {
	return Throttle(counter, "checkout", limit, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func serveAs(h http.Handler, userID uuid.UUID) int {
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req = req.WithContext(WithUser(req.Context(), userID, "", ""))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestThrottleLimitsPerUser(t *testing.T) {
	h := throttled(&memoryCounter{}, 2)
	alice, bob := uuid.New(), uuid.New()

	for i := 0; i < 2; i++ {
		if code := serveAs(h, alice); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := serveAs(h, alice); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if code := serveAs(h, bob); code != http.StatusOK {
		t.Fatalf("other user should pass, got %d", code)
	}
}

func TestThrottleFailsOpen(t *testing.T) {
	if code := serveAs(throttled(nil, 1), uuid.New()); code != http.StatusOK {
		t.Fatalf("nil counter: expected 200, got %d", code)
	}
	if code := serveAs(throttled(&memoryCounter{err: errors.New("redis down")}, 1), uuid.New()); code != http.StatusOK {
		t.Fatalf("counter error: expected 200, got %d", code)
	}
}
