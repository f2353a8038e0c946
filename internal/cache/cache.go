package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/cinevault/cinevault/internal/models"
	"github.com/redis/go-redis/v9"
)

// Cache is a Redis-backed response cache for movie listings. Failures are
// reported as misses so the movie API remains the source of truth.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and returns a cache with the given entry TTL.
func New(redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing Redis client. Used by tests and when the
// rate limiter already holds a connection.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// SearchKey builds the cache key for a search page.
func SearchKey(query string, page int) string {
	return fmt.Sprintf("movies:search:%s:%d", url.QueryEscape(query), page)
}

// TrendingKey is the cache key for the discover listing.
func TrendingKey() string {
	return "movies:trending"
}

// GetMovieList returns the cached list for key, or (nil, false) on a miss
// or any Redis/decoding failure.
func (c *Cache) GetMovieList(ctx context.Context, key string) (*models.MovieList, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var list models.MovieList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, false
	}
	return &list, true
}

// SetMovieList stores the list under key for the cache TTL.
func (c *Cache) SetMovieList(ctx context.Context, key string, list *models.MovieList) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode movie list: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache movie list: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c.client == nil {
		return errors.New("cache not initialized")
	}
	return c.client.Close()
}
