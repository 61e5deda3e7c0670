package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	pingErr    error
	version    int64
	dirty      bool
	versionErr error
}

func (f fakeStore) Ping(context.Context) error { return f.pingErr }

func (f fakeStore) SchemaVersion(context.Context) (int64, bool, error) {
	return f.version, f.dirty, f.versionErr
}

func (f fakeStore) Driver() string { return "sqlite" }

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	Healthz().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		store      Store
		wantStatus int
		wantState  string
		failing    string
	}{
		{name: "healthy", store: fakeStore{version: 1}, wantStatus: http.StatusOK, wantState: "healthy"},
		{name: "ping fails", store: fakeStore{version: 1, pingErr: errors.New("database is locked")}, wantStatus: http.StatusServiceUnavailable, wantState: "unhealthy", failing: "database"},
		{name: "dirty migration", store: fakeStore{version: 2, dirty: true}, wantStatus: http.StatusServiceUnavailable, wantState: "unhealthy", failing: "migrations"},
		{name: "not migrated", store: fakeStore{}, wantStatus: http.StatusServiceUnavailable, wantState: "unhealthy", failing: "migrations"},
		{name: "version error", store: fakeStore{versionErr: errors.New("no such table")}, wantStatus: http.StatusServiceUnavailable, wantState: "unhealthy", failing: "migrations"},
		{name: "no store", store: nil, wantStatus: http.StatusServiceUnavailable, wantState: "unhealthy", failing: "database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker(tt.store, "1.2.3", "abc123")
			w := httptest.NewRecorder()
			checker.Readyz().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var response HealthCheck
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.wantState, response.Status)
			assert.Equal(t, "1.2.3", response.Version)
			assert.Equal(t, "abc123", response.GitCommit)
			assert.NotEmpty(t, response.Timestamp)
			if tt.failing != "" {
				assert.Equal(t, "fail", response.Checks[tt.failing].Status)
			} else {
				assert.Equal(t, "pass", response.Checks["database"].Status)
				assert.Equal(t, "pass", response.Checks["migrations"].Status)
				assert.Equal(t, "sqlite", response.Driver)
			}
		})
	}
}

func TestReadyzShuttingDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := NewHealthChecker(fakeStore{version: 1}, "dev", "")
	w := httptest.NewRecorder()
	checker.Readyz().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil).WithContext(ctx))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"shutting_down"}`, w.Body.String())
}
