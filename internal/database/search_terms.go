package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cinevault/cinevault/internal/models"
	"github.com/google/uuid"
)

// SearchTermRepository handles search term count operations
type SearchTermRepository struct {
	db *DB
}

// NewSearchTermRepository creates a new search term repository
func NewSearchTermRepository(db *DB) *SearchTermRepository {
	return &SearchTermRepository{db: db}
}

// Record bumps the count for term, creating the row on first sight. The
// upsert is a single atomic statement, so concurrent recordings of the
// same term never lose increments or create duplicates.
func (r *SearchTermRepository) Record(ctx context.Context, term string, movieID int64, posterURL string) error {
	query := `
		INSERT INTO search_terms (id, term, count, movie_id, poster_url, created_at, updated_at)
		VALUES ($1, $2, 1, $3, $4, $5, $5)
		ON CONFLICT (term) DO UPDATE SET
			count = search_terms.count + 1,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), term, movieID, posterURL, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record search term: %w", err)
	}

	return nil
}

// Top returns the most-searched terms ordered by count descending.
func (r *SearchTermRepository) Top(ctx context.Context, limit int) ([]*models.SearchTerm, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, term, count, movie_id, poster_url, created_at, updated_at
		FROM search_terms
		ORDER BY count DESC, updated_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top search terms: %w", err)
	}
	defer rows.Close()

	var terms []*models.SearchTerm
	for rows.Next() {
		st := &models.SearchTerm{}
		if err := rows.Scan(&st.ID, &st.Term, &st.Count, &st.MovieID, &st.PosterURL, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search term: %w", err)
		}
		terms = append(terms, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search terms: %w", err)
	}

	return terms, nil
}
