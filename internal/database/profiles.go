package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cinevault/cinevault/internal/models"
	"github.com/lib/pq"
)

// ErrProfileExists is returned by Create when a profile with the same email
// or account ID already exists. Provisioning treats this as the
// already-exists branch instead of trusting a prior lookup.
var ErrProfileExists = errors.New("profile already exists")

const uniqueViolation = "23505"

// ProfileRepository handles user profile database operations
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a new profile. The unique index on email is the
// authoritative guard against duplicate provisioning; a conflict surfaces
// as ErrProfileExists.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	query := `
		INSERT INTO user_profiles (account_id, email, full_name, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		profile.AccountID,
		profile.Email,
		profile.FullName,
		profile.AvatarURL,
		time.Now(),
	).Scan(&profile.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrProfileExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByEmail retrieves a profile by email. Returns (nil, nil) when no
// profile exists for the address.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	query := `
		SELECT account_id, email, full_name, avatar_url, created_at
		FROM user_profiles
		WHERE email = $1
	`

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&profile.AccountID,
		&profile.Email,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}

	return profile, nil
}

// GetByAccountID retrieves a profile by its account ID
func (r *ProfileRepository) GetByAccountID(ctx context.Context, accountID string) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	query := `
		SELECT account_id, email, full_name, avatar_url, created_at
		FROM user_profiles
		WHERE account_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&profile.AccountID,
		&profile.Email,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by account ID: %w", err)
	}

	return profile, nil
}
