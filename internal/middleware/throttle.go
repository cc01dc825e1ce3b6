package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nebula-studio/billing-api/internal/pkg/logger"
	"github.com/nebula-studio/billing-api/internal/pkg/response"
)

// Counter increments a key that expires after window
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter is a fixed-window counter on INCR + EXPIRE
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter returns a nil Counter for a nil client
func NewRedisCounter(client *redis.Client) Counter {
	if client == nil {
		return nil
	}
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Throttle limits each authenticated user to limit requests per window.
// It must run after Auth. A nil counter or a counter error lets the request through.
func Throttle(counter Counter, name string, limit int64, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if counter == nil || limit <= 0 {
			return next
		}
		if window < time.Second {
			window = time.Second
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			bucket := time.Now().Unix() / int64(window.Seconds())
			key := fmt.Sprintf("throttle:%s:%s:%d", name, userID, bucket)

			n, err := counter.Incr(r.Context(), key, window)
			if err != nil {
				logger.FromContext(r.Context()).Warn().Err(err).Str("throttle", name).Msg("throttle counter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if n > limit {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				response.TooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
