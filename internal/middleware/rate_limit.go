package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/bookshelf/internal/errs"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware limits requests per client IP. Counters live in Redis
// when it is configured, so every instance shares them, and in process
// memory otherwise.
type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// Enabled reports whether server.rate_limit_requests is positive.
func (r *RateLimitMiddleware) Enabled() bool {
	return r.server.Config.Server.RateLimitRequests > 0
}

// Limit returns the limiter middleware. Callers install it on the API group
// only when Enabled.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	requests := r.server.Config.Server.RateLimitRequests
	window := r.server.Config.Server.RateLimitWindow
	if window < time.Second {
		window = time.Second
	}

	var store middleware.RateLimiterStore
	if r.server.Redis != nil {
		store = NewRedisRateLimiterStore(r.server.Redis, r.server.Logger, requests, window)
	} else {
		store = middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(requests) / window.Seconds()),
			Burst:     requests,
			ExpiresIn: 3 * window,
		})
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return errs.NewBadRequestError("Could not identify client", false, nil, nil, nil)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())
			GetLogger(c).Warn().
				Str("client", identifier).
				Msg("rate limit exceeded")
			return errs.NewTooManyRequestsError("Too many requests, slow down")
		},
	})
}

// RecordRateLimitHit sends a RateLimitHit event to New Relic.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if app := r.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("RateLimitHit", map[string]interface{}{
			"endpoint": endpoint,
		})
	}
}

// RedisRateLimiterStore is a fixed window counter: INCR on a key per client
// and window, expiring with the window.
type RedisRateLimiterStore struct {
	client   *redis.Client
	logger   *zerolog.Logger
	requests int64
	window   time.Duration
	now      func() time.Time
}

func NewRedisRateLimiterStore(client *redis.Client, logger *zerolog.Logger, requests int, window time.Duration) *RedisRateLimiterStore {
	return &RedisRateLimiterStore{
		client:   client,
		logger:   logger,
		requests: int64(requests),
		window:   window,
		now:      time.Now,
	}
}

// Allow implements middleware.RateLimiterStore. When Redis is unreachable
// the request is let through.
func (s *RedisRateLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	bucket := s.now().UnixNano() / int64(s.window)
	key := fmt.Sprintf("bookshelf:ratelimit:%s:%d", identifier, bucket)

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error().Err(err).Msg("rate limiter store unavailable, allowing request")
		return true, nil
	}

	return count.Val() <= s.requests, nil
}

var _ middleware.RateLimiterStore = (*RedisRateLimiterStore)(nil)
