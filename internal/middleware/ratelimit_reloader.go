package middleware

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cinevault/cinevault/internal/database"
	"github.com/cinevault/cinevault/internal/models"
	"github.com/cinevault/cinevault/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const defaultRatelimitRate = "5-S"

// RateLimitReloader wraps ulule/limiter and rebuilds the limiter from database
// config on an interval. Limits are keyed by client IP against a shared Redis
// store.
type RateLimitReloader struct {
	store       limiter.Store
	repo        *database.RatelimitConfigRepository
	defaultRate string
	log         *zap.Logger
	interval    time.Duration

	next    http.Handler
	current atomic.Value // http.Handler
}

// NewRateLimitReloader creates the reloading rate limit middleware. Returns
// nil if the Redis store cannot be created.
func NewRateLimitReloader(redisClient *redis.Client, repo *database.RatelimitConfigRepository, defaultRate string, log *zap.Logger, reloadInterval time.Duration) *RateLimitReloader {
	if defaultRate == "" {
		defaultRate = defaultRatelimitRate
	}
	store, err := redisstore.NewStore(redisClient)
	if err != nil {
		log.Error("failed_to_create_redis_store_for_rate_limiter", zap.Error(err))
		return nil
	}
	return &RateLimitReloader{
		store:       store,
		repo:        repo,
		defaultRate: defaultRate,
		log:         log,
		interval:    reloadInterval,
	}
}

// Middleware returns the mux-compatible middleware function
func (rl *RateLimitReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		rl.next = next
		rl.rebuild(context.Background())
		return rl
	}
}

// Start runs the reload loop until ctx is cancelled. Call after Middleware()
// has been applied.
func (rl *RateLimitReloader) Start(ctx context.Context) {
	if rl.interval <= 0 {
		return
	}
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.rebuild(ctx)
		}
	}
}

// loadRate resolves the configured rate string, seeding the default into the
// database when no row exists
func (rl *RateLimitReloader) loadRate(ctx context.Context) string {
	cfg, err := rl.repo.Get(ctx)
	if err != nil {
		rl.log.Warn("failed_to_load_ratelimit_config_using_default",
			zap.Error(err),
			zap.String("default_rate", rl.defaultRate),
		)
		return rl.defaultRate
	}
	if cfg != nil && cfg.Rate != "" {
		return cfg.Rate
	}
	if err := rl.repo.Set(ctx, &models.RatelimitConfig{Rate: rl.defaultRate}); err != nil {
		rl.log.Error("failed_to_save_default_ratelimit_config",
			zap.Error(err),
			zap.String("default_rate", rl.defaultRate),
		)
	}
	return rl.defaultRate
}

func (rl *RateLimitReloader) rebuild(ctx context.Context) {
	if rl.next == nil {
		return
	}

	rateStr := rl.loadRate(ctx)
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		rl.log.Error("failed_to_parse_rate_limit_using_default",
			zap.Error(err),
			zap.String("rate_str", rateStr),
		)
		rate, err = limiter.NewRateFromFormatted(rl.defaultRate)
		if err != nil {
			rl.log.Error("failed_to_parse_default_rate_limit",
				zap.Error(err),
				zap.String("default_rate", rl.defaultRate),
			)
			return
		}
	}

	// The Redis store is reused; only the limiter instance carries the rate
	instance := limiter.New(rl.store, rate)
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(func(r *http.Request) string {
		return request.ClientIP(r)
	}))
	rl.current.Store(mw.Handler(rl.next))
}

// ServeHTTP implements http.Handler
func (rl *RateLimitReloader) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if h, ok := rl.current.Load().(http.Handler); ok {
		h.ServeHTTP(w, req)
		return
	}
	if rl.next != nil {
		rl.next.ServeHTTP(w, req)
	}
}
