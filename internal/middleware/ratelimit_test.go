package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if _, _, allowed := rl.allow("10.0.0.1"); !allowed {
			t.Fatalf("request %d within burst was rejected", i+1)
		}
	}
	if _, retryAfter, allowed := rl.allow("10.0.0.1"); allowed {
		t.Fatal("request beyond burst was allowed")
	} else if retryAfter <= 0 {
		t.Errorf("retryAfter = %v, want positive", retryAfter)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	if _, _, allowed := rl.allow("10.0.0.1"); !allowed {
		t.Fatal("first client rejected")
	}
	if _, _, allowed := rl.allow("10.0.0.1"); allowed {
		t.Fatal("first client not limited after burst")
	}
	if _, _, allowed := rl.allow("10.0.0.2"); !allowed {
		t.Fatal("second client hit first client's limit")
	}
}

func TestRateLimiterHandlerReturns429(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/letters", nil)
	req.RemoteAddr = "10.0.0.3:4567"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.allow("10.0.0.4")
	rl.allow("10.0.0.5")
	if rl.Len() != 2 {
		t.Fatalf("Len = %d, want 2", rl.Len())
	}

	time.Sleep(10 * time.Millisecond)
	rl.cleanup(time.Millisecond)
	if rl.Len() != 0 {
		t.Errorf("Len after cleanup = %d, want 0", rl.Len())
	}
}

func TestRealIPIgnoresProxyHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:9999"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")

	if got := realIP(req); got != "192.0.2.7" {
		t.Errorf("realIP = %q, want 192.0.2.7", got)
	}
}
