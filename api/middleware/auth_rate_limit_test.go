package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeRateStore struct {
	counts map[string]int64
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: make(map[string]int64)}
}

func (f *fakeRateStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	f.counts[key]++
	return f.counts[key], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthRateLimitBlocksAfterIPLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 0)
	handler := AuthRateLimit(policy, store, middlewareTestLogger())(okHandler())

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest("POST", "/login", strings.NewReader(`{}`))
		r.RemoteAddr = "203.0.113.9:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusNoContent {
			t.Fatalf("attempt %d: expected passthrough, got %d", i, w.Code)
		}
	}

	r := httptest.NewRequest("POST", "/login", strings.NewReader(`{}`))
	r.RemoteAddr = "203.0.113.9:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the limit, got %d", w.Code)
	}

	// a different client is unaffected
	r = httptest.NewRequest("POST", "/login", strings.NewReader(`{}`))
	r.RemoteAddr = "198.51.100.7:1234"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected other ip to pass, got %d", w.Code)
	}
}

func TestAuthRateLimitCountsIdentifierAcrossIPs(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 1)
	handler := AuthRateLimit(policy, store, middlewareTestLogger())(okHandler())

	send := func(remote string) int {
		r := httptest.NewRequest("POST", "/login", strings.NewReader(`{"identifier":"Ada@Example.com"}`))
		r.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	if code := send("203.0.113.9:1"); code != http.StatusNoContent {
		t.Fatalf("first attempt must pass, got %d", code)
	}
	if code := send("198.51.100.7:2"); code != http.StatusTooManyRequests {
		t.Fatalf("same identifier from another ip must be blocked, got %d", code)
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", 0, 0, 0), newFakeRateStore(), nil)(okHandler())

	r := httptest.NewRequest("POST", "/login", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected passthrough, got %d", w.Code)
	}
}
