package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
)

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler(zerolog.Nop())

	c, rec := newTestContext(http.MethodGet, "/health", "")
	if err := h.Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "ok" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	up := PingerFunc(func(context.Context) error { return nil })
	down := PingerFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("all up", func(t *testing.T) {
		h := NewHealthHandler(zerolog.Nop(), Dependency{"mongodb", up}, Dependency{"redis", up})
		c, rec := newTestContext(http.MethodGet, "/health/ready", "")
		if err := h.Readiness(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("redis down", func(t *testing.T) {
		h := NewHealthHandler(zerolog.Nop(), Dependency{"mongodb", up}, Dependency{"redis", down})
		c, rec := newTestContext(http.MethodGet, "/health/ready", "")
		if err := h.Readiness(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}

		resp := decode(t, rec)
		if resp["status"] != "degraded" {
			t.Fatalf("unexpected status: %v", resp["status"])
		}
		deps, _ := resp["dependencies"].(map[string]any)
		redis, _ := deps["redis"].(map[string]any)
		mongo, _ := deps["mongodb"].(map[string]any)
		if redis["status"] != "unhealthy" || mongo["status"] != "ok" {
			t.Fatalf("unexpected dependencies: %+v", deps)
		}
	})
}
