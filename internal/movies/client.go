package movies

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cinevault/cinevault/internal/models"
)

// PosterBaseURL is the image host for poster paths returned by the API.
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

// Client is an HTTP client for the public movie-metadata API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a movie-metadata API client. apiKey is sent as a
// bearer token on every request.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Search queries movies matching query. page is 1-based; values below 1
// are treated as 1.
func (c *Client) Search(ctx context.Context, query string, page int) (*models.MovieList, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	return c.get(ctx, "/search/movie", params)
}

// Discover returns movies ordered by popularity, used for trending rows.
func (c *Client) Discover(ctx context.Context) (*models.MovieList, error) {
	params := url.Values{}
	params.Set("sort_by", "popularity.desc")
	return c.get(ctx, "/discover/movie", params)
}

// PosterURL resolves a movie's poster path against the image host.
// Returns empty when the movie has no poster.
func PosterURL(m *models.Movie) string {
	if m == nil || m.PosterPath == "" {
		return ""
	}
	return PosterBaseURL + m.PosterPath
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*models.MovieList, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("movie API unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("movie API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var list models.MovieList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode movie API response: %w", err)
	}
	return &list, nil
}
