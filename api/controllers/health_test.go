package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atriumhq/atrium-backend/pkg/config"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func healthTestConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test", Port: "0"}}
}

func TestHealthLive(t *testing.T) {
	handler := HealthLive(healthTestConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-Atrium-Env") != "test" {
		t.Fatalf("expected env header, got %q", rec.Header().Get("X-Atrium-Env"))
	}
}

func TestHealthReadyAllDependenciesUp(t *testing.T) {
	handler := HealthReady(healthTestConfig(), nil, stubPinger{}, stubPinger{}, stubPinger{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != "ready" {
		t.Fatalf("expected ready status, got %q", envelope.Data.Status)
	}
	for _, dep := range []string{"db", "redis", "gcs"} {
		if envelope.Data.Checks[dep] != "ok" {
			t.Fatalf("expected %s ok, got %q", dep, envelope.Data.Checks[dep])
		}
	}
}

func TestHealthReadyReportsFailedDependency(t *testing.T) {
	handler := HealthReady(healthTestConfig(), nil, stubPinger{}, stubPinger{err: errors.New("connection refused")}, stubPinger{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

func TestHealthReadySkipsUnconfiguredDependencies(t *testing.T) {
	handler := HealthReady(healthTestConfig(), nil, stubPinger{}, stubPinger{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			Checks map[string]string `json:"checks"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Checks["gcs"] != "skipped" {
		t.Fatalf("expected gcs skipped, got %q", envelope.Data.Checks["gcs"])
	}
}
