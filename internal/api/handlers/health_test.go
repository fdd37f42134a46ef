package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/WENLIN-CHANG/BackTester/pkg/config"
	"github.com/WENLIN-CHANG/BackTester/pkg/logger"
)

func testHandlerLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(_ context.Context) error {
	return p.err
}

func getHealth(t *testing.T, h *HealthHandler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)
	return rec
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	return resp
}

func TestHealthCheckWithoutDatabase(t *testing.T) {
	log := testHandlerLogger()
	rec := getHealth(t, NewHealthHandler(nil, log))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeHealth(t, rec)
	if resp["status"] != "ok" {
		t.Errorf("status field = %q, want ok", resp["status"])
	}
	if _, present := resp["database"]; present {
		t.Error("database field should be absent when no database is configured")
	}
}

func TestHealthCheckDatabaseReachable(t *testing.T) {
	log := testHandlerLogger()
	rec := getHealth(t, NewHealthHandler(&stubPinger{}, log))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeHealth(t, rec)
	if resp["database"] != "ok" {
		t.Errorf("database field = %q, want ok", resp["database"])
	}
}

func TestHealthCheckDatabaseUnreachable(t *testing.T) {
	log := testHandlerLogger()
	rec := getHealth(t, NewHealthHandler(&stubPinger{err: errors.New("connection refused")}, log))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeHealth(t, rec)
	if resp["status"] != "degraded" {
		t.Errorf("status field = %q, want degraded", resp["status"])
	}
	if resp["database"] != "unreachable" {
		t.Errorf("database field = %q, want unreachable", resp["database"])
	}
}
