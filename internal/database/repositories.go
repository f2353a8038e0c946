package database

import (
	"context"

	"github.com/cinevault/cinevault/internal/models"
)

// ProfileStore defines the interface for profile repository operations.
// This interface enables better testability by allowing mock implementations.
type ProfileStore interface {
	Create(ctx context.Context, profile *models.UserProfile) error
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	GetByAccountID(ctx context.Context, accountID string) (*models.UserProfile, error)
}

// SearchTermStore defines the interface for search term repository operations
type SearchTermStore interface {
	Record(ctx context.Context, term string, movieID int64, posterURL string) error
	Top(ctx context.Context, limit int) ([]*models.SearchTerm, error)
}

// Ensure concrete types implement the interfaces
var (
	_ ProfileStore    = (*ProfileRepository)(nil)
	_ SearchTermStore = (*SearchTermRepository)(nil)
)
