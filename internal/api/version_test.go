package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionHandler(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		gitCommit string
		buildDate string
		want      versionResponse
	}{
		{
			name:      "with all values",
			version:   "0.1.0",
			gitCommit: "abc123def456",
			buildDate: "2026-01-28T12:00:00Z",
			want:      versionResponse{Version: "0.1.0", GitCommit: "abc123def456", BuildDate: "2026-01-28T12:00:00Z"},
		},
		{
			name: "with defaults",
			want: versionResponse{Version: "dev", GitCommit: "unknown", BuildDate: "unknown"},
		},
		{
			name:      "with partial values",
			version:   "1.0.0",
			buildDate: "2026-01-28T12:00:00Z",
			want:      versionResponse{Version: "1.0.0", GitCommit: "unknown", BuildDate: "2026-01-28T12:00:00Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			VersionHandler(tt.version, tt.gitCommit, tt.buildDate).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp versionResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			tt.want.GoVersion = runtime.Version()
			assert.Equal(t, tt.want, resp)
		})
	}
}

func TestVersionHandler_MethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			w := httptest.NewRecorder()
			VersionHandler("1.0.0", "abc", "2026-01-01").ServeHTTP(w, httptest.NewRequest(method, "/version", nil))

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
		})
	}
}
