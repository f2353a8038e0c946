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

const ratelimitConfigKey = "default"

// RatelimitConfigRepository reads and writes the stored rate limit
type RatelimitConfigRepository struct {
	db *DB
}

func NewRatelimitConfigRepository(db *DB) *RatelimitConfigRepository {
	return &RatelimitConfigRepository{db: db}
}

// Get returns the stored rate limit, or nil when none has been configured yet
func (r *RatelimitConfigRepository) Get(ctx context.Context) (*models.RatelimitConfig, error) {
	var c models.RatelimitConfig
	err := r.db.QueryRowContext(ctx,
		`SELECT config_key, rate, created_at, updated_at
		 FROM ratelimit_config WHERE config_key = $1`,
		ratelimitConfigKey,
	).Scan(&c.ConfigKey, &c.Rate, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ratelimit config: %w", err)
	}
	return &c, nil
}

// Set upserts the stored rate limit. The rate uses ulule/limiter notation.
func (r *RatelimitConfigRepository) Set(ctx context.Context, c *models.RatelimitConfig) error {
	rate := strings.TrimSpace(c.Rate)
	if rate == "" {
		return fmt.Errorf("rate cannot be empty")
	}
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ratelimit_config (config_key, rate, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (config_key) DO UPDATE SET
			rate = EXCLUDED.rate,
			updated_at = EXCLUDED.updated_at`,
		ratelimitConfigKey, rate, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save ratelimit config: %w", err)
	}
	return nil
}
