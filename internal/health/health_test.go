package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"turfbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

func serve(h *HealthHandler, path string) (*httptest.ResponseRecorder, HealthResponse) {
	router := httprouter.New()
	h.RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var resp HealthResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHealth(t *testing.T) {
	w, resp := serve(NewHealthHandler(logger.Discard()), "/health")
	if w.Code != http.StatusOK || resp.Status != "ok" {
		t.Errorf("got %d %+v", w.Code, resp)
	}
}

func TestReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		mongo      Check
		redis      Check
		wantStatus int
		wantRedis  string
	}{
		{"all up", ok, ok, http.StatusOK, "ok"},
		{"redis down", ok, down, http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(logger.Discard()).
				Register("mongo", tt.mongo).
				Register("redis", tt.redis)

			w, resp := serve(h, "/ready")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if resp.Dependencies["mongo"] != "ok" {
				t.Errorf("mongo = %q", resp.Dependencies["mongo"])
			}
			if resp.Dependencies["redis"] != tt.wantRedis {
				t.Errorf("redis = %q, want %q", resp.Dependencies["redis"], tt.wantRedis)
			}
		})
	}
}
