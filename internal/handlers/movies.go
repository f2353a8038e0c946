package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/cinevault/cinevault/internal/cache"
	"github.com/cinevault/cinevault/internal/database"
	"github.com/cinevault/cinevault/internal/models"
	"github.com/cinevault/cinevault/internal/movies"
	"github.com/cinevault/cinevault/internal/queue"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// MaxQueryLength is the maximum length for a search query
	MaxQueryLength = 200
	// DefaultTopLimit is the default number of top search terms returned
	DefaultTopLimit = 10
	// MaxTopLimit is the maximum number of top search terms returned
	MaxTopLimit = 50
)

// Catalog is the movie catalog API surface the handler needs
type Catalog interface {
	Search(ctx context.Context, query string, page int) (*models.MovieList, error)
	Discover(ctx context.Context) (*models.MovieList, error)
}

// MovieHandler handles movie catalog requests
type MovieHandler struct {
	catalog  Catalog
	cache    *cache.Cache        // optional
	jobQueue queue.JobQueue      // optional
	terms    database.SearchTermStore
	logger   *zap.Logger
}

// NewMovieHandler creates a new movie handler. cache and jobQueue may be nil;
// search then goes straight to the catalog and counts are not recorded.
func NewMovieHandler(catalog Catalog, c *cache.Cache, jobQueue queue.JobQueue, terms database.SearchTermStore, logger *zap.Logger) *MovieHandler {
	return &MovieHandler{
		catalog:  catalog,
		cache:    c,
		jobQueue: jobQueue,
		terms:    terms,
		logger:   logger,
	}
}

// RegisterRoutes registers movie routes on the given router.
// The router should already have the /movies prefix.
func (h *MovieHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/search", h.Search).Methods("GET")
	r.HandleFunc("/trending", h.Trending).Methods("GET")
	r.HandleFunc("/searches/top", h.TopSearches).Methods("GET")
}

// Search looks up movies by query. Successful searches enqueue a search count
// job; recording is asynchronous and never blocks or fails the response.
func (h *MovieHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "query parameter is required")
		return
	}
	if len(query) > MaxQueryLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "query is too long")
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	ctx := r.Context()
	key := cache.SearchKey(query, page)
	if h.cache != nil {
		if list, ok := h.cache.GetMovieList(ctx, key); ok {
			respondJSON(w, http.StatusOK, list)
			return
		}
	}

	list, err := h.catalog.Search(ctx, query, page)
	if err != nil {
		h.logger.Error("movie_search_failed", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Catalog Error", "Failed to search movies")
		return
	}

	if h.cache != nil {
		if err := h.cache.SetMovieList(ctx, key, list); err != nil {
			h.logger.Warn("movie_cache_write_failed", zap.Error(err))
		}
	}

	// First page only: counts attribute a term to its top match.
	if page == 1 && len(list.Results) > 0 {
		h.recordSearch(ctx, query, &list.Results[0])
	}

	respondJSON(w, http.StatusOK, list)
}

// Trending returns the most popular movies in the catalog
func (h *MovieHandler) Trending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := cache.TrendingKey()
	if h.cache != nil {
		if list, ok := h.cache.GetMovieList(ctx, key); ok {
			respondJSON(w, http.StatusOK, list)
			return
		}
	}

	list, err := h.catalog.Discover(ctx)
	if err != nil {
		h.logger.Error("movie_trending_failed", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Catalog Error", "Failed to load trending movies")
		return
	}

	if h.cache != nil {
		if err := h.cache.SetMovieList(ctx, key, list); err != nil {
			h.logger.Warn("movie_cache_write_failed", zap.Error(err))
		}
	}

	respondJSON(w, http.StatusOK, list)
}

// TopSearchesResponse lists the most-searched terms
type TopSearchesResponse struct {
	Terms []*models.SearchTerm `json:"terms"`
}

// TopSearches returns the most-searched terms ordered by count
func (h *MovieHandler) TopSearches(w http.ResponseWriter, r *http.Request) {
	limit := DefaultTopLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > MaxTopLimit {
				limit = MaxTopLimit
			}
		}
	}

	terms, err := h.terms.Top(r.Context(), limit)
	if err != nil {
		h.logger.Error("top_searches_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load top searches")
		return
	}

	respondJSON(w, http.StatusOK, TopSearchesResponse{Terms: terms})
}

// recordSearch enqueues a search count job for the query's top match
func (h *MovieHandler) recordSearch(ctx context.Context, query string, top *models.Movie) {
	if h.jobQueue == nil {
		return
	}
	job := queue.NewSearchCountJob(strings.ToLower(query), top.ID, movies.PosterURL(top))
	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		h.logger.Warn("search_count_enqueue_failed",
			zap.String("term", query),
			zap.Error(err),
		)
	}
}
