package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cinevault/cinevault/internal/models"
)

// A single row keyed "default" holds the active CORS policy.
const corsConfigKey = "default"

// CorsConfigRepository reads and writes the stored CORS policy
type CorsConfigRepository struct {
	db *DB
}

func NewCorsConfigRepository(db *DB) *CorsConfigRepository {
	return &CorsConfigRepository{db: db}
}

// Get returns the stored policy, or nil when none has been configured yet
func (r *CorsConfigRepository) Get(ctx context.Context) (*models.CorsConfig, error) {
	var c models.CorsConfig
	err := r.db.QueryRowContext(ctx,
		`SELECT config_key, allowed_origins, allow_credentials, max_age, created_at, updated_at
		 FROM cors_config WHERE config_key = $1`,
		corsConfigKey,
	).Scan(&c.ConfigKey, &c.AllowedOrigins, &c.AllowCredentials, &c.MaxAge, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cors config: %w", err)
	}
	return &c, nil
}

// Set upserts the stored policy
func (r *CorsConfigRepository) Set(ctx context.Context, c *models.CorsConfig) error {
	origins := strings.TrimSpace(c.AllowedOrigins)
	if origins == "" {
		return fmt.Errorf("allowed_origins cannot be empty")
	}
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cors_config (config_key, allowed_origins, allow_credentials, max_age, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (config_key) DO UPDATE SET
			allowed_origins = EXCLUDED.allowed_origins,
			allow_credentials = EXCLUDED.allow_credentials,
			max_age = EXCLUDED.max_age,
			updated_at = EXCLUDED.updated_at`,
		corsConfigKey, origins, c.AllowCredentials, c.MaxAge, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save cors config: %w", err)
	}
	return nil
}

// AllowedOriginsSlice splits a comma-separated origin list, trimming blanks
// and dropping duplicates while keeping order
func AllowedOriginsSlice(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, dup := seen[origin]; dup {
			continue
		}
		seen[origin] = struct{}{}
		out = append(out, origin)
	}
	return out
}
