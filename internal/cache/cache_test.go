package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cinevault/cinevault/internal/models"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewWithClient(client, ttl), mr
}

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	list := &models.MovieList{
		Page:         1,
		Results:      []models.Movie{{ID: 438631, Title: "Dune", PosterPath: "/dune.jpg"}},
		TotalPages:   1,
		TotalResults: 1,
	}

	key := SearchKey("dune", 1)
	if _, ok := c.GetMovieList(ctx, key); ok {
		t.Fatal("expected a miss before set")
	}

	if err := c.SetMovieList(ctx, key, list); err != nil {
		t.Fatalf("SetMovieList returned error: %v", err)
	}

	got, ok := c.GetMovieList(ctx, key)
	if !ok {
		t.Fatal("expected a hit after set")
	}
	if len(got.Results) != 1 || got.Results[0].Title != "Dune" {
		t.Errorf("unexpected cached list: %+v", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t, time.Second)
	ctx := context.Background()

	key := TrendingKey()
	if err := c.SetMovieList(ctx, key, &models.MovieList{Page: 1}); err != nil {
		t.Fatalf("SetMovieList returned error: %v", err)
	}
	if _, ok := c.GetMovieList(ctx, key); !ok {
		t.Fatal("expected a hit before expiry")
	}

	mr.FastForward(2 * time.Second)

	if _, ok := c.GetMovieList(ctx, key); ok {
		t.Error("expected a miss after TTL")
	}
}

func TestCacheKeys(t *testing.T) {
	t.Parallel()

	if SearchKey("dune part two", 2) == SearchKey("dune", 2) {
		t.Error("expected distinct keys for distinct queries")
	}
	if SearchKey("dune", 1) == SearchKey("dune", 2) {
		t.Error("expected distinct keys for distinct pages")
	}
}
