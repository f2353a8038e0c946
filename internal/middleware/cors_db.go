package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cinevault/cinevault/internal/database"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// CORSReloader wraps rs/cors and rebuilds the handler from database config on
// an interval, so allowed origins can change without a restart.
type CORSReloader struct {
	repo     *database.CorsConfigRepository
	fallback string
	log      *zap.Logger
	interval time.Duration

	next    http.Handler
	current atomic.Value // http.Handler
}

// NewCORSReloader creates the reloading CORS middleware. frontendURLFallback
// is used when no config row exists yet.
func NewCORSReloader(repo *database.CorsConfigRepository, frontendURLFallback string, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	return &CORSReloader{
		repo:     repo,
		fallback: strings.TrimSpace(frontendURLFallback),
		log:      log,
		interval: reloadInterval,
	}
}

// Middleware returns the mux-compatible middleware function
func (cr *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		cr.next = next
		cr.rebuild(context.Background())
		return cr
	}
}

// Start runs the reload loop until ctx is cancelled. Call after Middleware()
// has been applied.
func (cr *CORSReloader) Start(ctx context.Context) {
	if cr.interval <= 0 {
		return
	}
	ticker := time.NewTicker(cr.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cr.rebuild(ctx)
		}
	}
}

func (cr *CORSReloader) rebuild(ctx context.Context) {
	if cr.next == nil {
		return
	}

	origins := database.AllowedOriginsSlice(cr.fallback)
	allowCreds := true
	maxAge := 86400

	cfg, err := cr.repo.Get(ctx)
	if err != nil {
		cr.log.Warn("failed_to_load_cors_config_using_fallback", zap.Error(err))
	} else if cfg != nil {
		origins = database.AllowedOriginsSlice(cfg.AllowedOrigins)
		allowCreds = cfg.AllowCredentials
		maxAge = cfg.MaxAge
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	// Cookies must be sent cross-origin, so credentials stay enabled and
	// the allowed origin list is explicit, never "*"
	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: allowCreds,
		MaxAge:           maxAge,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
	}).Handler(cr.next)

	cr.current.Store(handler)
}

// ServeHTTP implements http.Handler
func (cr *CORSReloader) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if h, ok := cr.current.Load().(http.Handler); ok {
		h.ServeHTTP(w, req)
		return
	}
	if cr.next != nil {
		cr.next.ServeHTTP(w, req)
	}
}
