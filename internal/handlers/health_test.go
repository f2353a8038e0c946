package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cinevault/cinevault/internal/cache"
	"github.com/cinevault/cinevault/internal/database"
	"github.com/redis/go-redis/v9"
)

func TestHealthChecker_BasicMode(t *testing.T) {
	t.Parallel()

	// Basic mode touches no backends, so nil dependencies are fine
	checker := NewHealthChecker(nil, nil, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	checker.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
	if response.Checks != nil {
		t.Errorf("expected no checks in basic mode, got %v", response.Checks)
	}
}

func TestHealthChecker_ExtendedMode_DatabaseDown(t *testing.T) {
	t.Parallel()

	// sql.Open does not connect; ping fails on first use
	sqlDB, err := sql.Open("postgres", "postgres://nobody@127.0.0.1:1/healthtest?sslmode=disable&connect_timeout=1")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	checker := NewHealthChecker(&database.DB{DB: sqlDB}, nil, nil)

	req := httptest.NewRequest("GET", "/healthz?mode=extended", nil)
	rec := httptest.NewRecorder()
	checker.HealthCheck(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "unhealthy" {
		t.Errorf("expected status unhealthy, got %s", response.Status)
	}
	if response.Checks["database"] == "healthy" {
		t.Error("expected database check to be unhealthy")
	}
}

func TestHealthChecker_ExtendedMode_CacheChecked(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewWithClient(client, time.Minute)

	sqlDB, err := sql.Open("postgres", "postgres://nobody@127.0.0.1:1/healthtest?sslmode=disable&connect_timeout=1")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	checker := NewHealthChecker(&database.DB{DB: sqlDB}, c, nil)

	req := httptest.NewRequest("GET", "/healthz?mode=extended", nil)
	rec := httptest.NewRecorder()
	checker.HealthCheck(rec, req)

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Checks["cache"] != "healthy" {
		t.Errorf("expected cache check to be healthy, got %s", response.Checks["cache"])
	}
	if _, ok := response.Checks["queue"]; ok {
		t.Error("expected no queue check when queue is not configured")
	}
}
