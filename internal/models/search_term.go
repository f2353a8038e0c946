package models

import (
	"time"

	"github.com/google/uuid"
)

// SearchTerm records how often a query has been searched, along with the
// top movie it matched when first seen. Term is unique; counts are bumped
// with an atomic upsert.
type SearchTerm struct {
	ID        uuid.UUID `json:"id"`
	Term      string    `json:"term"`
	Count     int64     `json:"count"`
	MovieID   int64     `json:"movie_id"`
	PosterURL string    `json:"poster_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
