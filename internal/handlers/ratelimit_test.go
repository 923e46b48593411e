package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/abrezinsky/prizewheel/internal/handlers"
	"github.com/abrezinsky/prizewheel/internal/logger"
)

func limitedHandler(t *testing.T, rate string) http.Handler {
	t.Helper()
	mw, err := handlers.NewRateLimiter(handlers.RateLimitConfig{Rate: rate}, logger.New())
	if err != nil {
		t.Fatalf("NewRateLimiter failed: %v", err)
	}
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/wheel/1/spin", nil)
	req.RemoteAddr = ip + ":4242"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	h := limitedHandler(t, "2-M")

	for i := 0; i < 2; i++ {
		if rec := hit(h, "192.0.2.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := hit(h, "192.0.2.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || retry < 1 || retry > 60 {
		t.Errorf("expected Retry-After within the minute, got %q", rec.Header().Get("Retry-After"))
	}
	if errorCode(t, rec) != handlers.ErrCodeRateLimited {
		t.Errorf("expected RATE_LIMITED body, got %s", rec.Body.String())
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	h := limitedHandler(t, "1-M")

	if rec := hit(h, "192.0.2.1"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := hit(h, "192.0.2.2"); rec.Code != http.StatusOK {
		t.Errorf("expected a different IP to have its own budget, got %d", rec.Code)
	}
}

func TestRateLimiter_InvalidRate(t *testing.T) {
	if _, err := handlers.NewRateLimiter(handlers.RateLimitConfig{Rate: "lots"}, logger.New()); err == nil {
		t.Error("expected error for an invalid rate")
	}
}

func TestRouter_AppliesPublicRateLimit(t *testing.T) {
	setup := newTestSetup(t)
	mw, err := handlers.NewRateLimiter(handlers.RateLimitConfig{Rate: "1-M"}, logger.New())
	if err != nil {
		t.Fatalf("NewRateLimiter failed: %v", err)
	}
	setup.handlers.SetPublicRateLimit(mw)
	router := setup.handlers.Router()

	for i, want := range []int{http.StatusNotFound, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/api/wheel/999", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}

	// health checks are never limited
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected healthz to bypass the limiter, got %d", rec.Code)
	}
}
