package handlers

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/abrezinsky/prizewheel/internal/logger"
)

const limiterPrefix = "prizewheel:limiter"

// RateLimitConfig configures IP rate limiting of public routes
type RateLimitConfig struct {
	// Rate in limiter format, e.g. "60-M" for 60 requests per minute
	Rate string
	// Redis is an optional shared store; memory is used when nil
	Redis *redis.Client
}

// NewRateLimiter builds a per-IP rate limiting middleware. Requests over
// the limit get a 429 with Retry-After.
func NewRateLimiter(cfg RateLimitConfig, log logger.Logger) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, err
	}

	var store limiter.Store
	if cfg.Redis != nil {
		store, err = sredis.NewStoreWithOptions(cfg.Redis, limiter.StoreOptions{
			Prefix:          limiterPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          limiterPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
	}

	instance := limiter.New(store, rate)
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(limitReached),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("Rate limiter store error", "path", r.URL.Path, "error", err)
			writeAPIError(w, ErrInternalServer)
		}),
	)
	return mw.Handler, nil
}

// limitReached reports the limiter's reset time as Retry-After
func limitReached(w http.ResponseWriter, r *http.Request) {
	reset := cast.ToInt64(w.Header().Get("X-RateLimit-Reset"))
	var retry time.Duration
	if reset > 0 {
		retry = time.Until(time.Unix(reset, 0))
	}
	if retry < time.Second {
		retry = time.Second
	}
	writeAPIError(w, TooManyRequests("Too many requests, please slow down", retry))
}
