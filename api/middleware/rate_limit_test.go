package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disburse-labs/disburser-backend/pkg/config"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: make(map[string]int64)}
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func rateLimitTestConfig() config.RateLimitConfig {
	return config.RateLimitConfig{Requests: 2, Window: time.Minute}
}

func TestRateLimitRejectsOverWindowCap(t *testing.T) {
	limiter := newFakeLimiter()
	handled := 0
	mw := RateLimit(limiter, rateLimitTestConfig(), nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handled++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/batches/abc/process", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d should pass, got %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/batches/abc/process", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third call should be limited, got %d", rec.Code)
	}
	if handled != 2 {
		t.Fatalf("limited call must not reach the handler, handled=%d", handled)
	}
}

func TestRateLimitScopesPerPath(t *testing.T) {
	limiter := newFakeLimiter()
	mw := RateLimit(limiter, rateLimitTestConfig(), nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/batches/a/process", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/batches/a/process", nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/batches/b/process", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("different batch path must count separately, got %d", rec.Code)
	}
}

func TestRateLimitSkipsReads(t *testing.T) {
	limiter := newFakeLimiter()
	mw := RateLimit(limiter, rateLimitTestConfig(), nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("reads must never be limited, got %d on call %d", rec.Code, i+1)
		}
	}
	if len(limiter.counts) != 0 {
		t.Fatalf("reads must not touch the limiter, got %v", limiter.counts)
	}
}

func TestRateLimitFailsOpenOnLimiterError(t *testing.T) {
	limiter := newFakeLimiter()
	limiter.err = errors.New("redis down")
	mw := RateLimit(limiter, rateLimitTestConfig(), nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/batches/abc/approve", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("limiter outage must fail open, got %d", rec.Code)
	}
}
