package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Togather-Foundation/voluntier/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.CORSConfig
		origin      string
		method      string
		wantOrigin  string
		wantStatus  int
		wantHandled bool
	}{
		{
			name:        "development allows any origin",
			cfg:         config.CORSConfig{AllowAllOrigins: true},
			origin:      "http://localhost:5173",
			method:      http.MethodGet,
			wantOrigin:  "http://localhost:5173",
			wantStatus:  http.StatusOK,
			wantHandled: true,
		},
		{
			name:        "whitelisted origin, case-insensitive",
			cfg:         config.CORSConfig{AllowedOrigins: []string{"https://Volunteer.example.org"}},
			origin:      "https://volunteer.example.org",
			method:      http.MethodGet,
			wantOrigin:  "https://volunteer.example.org",
			wantStatus:  http.StatusOK,
			wantHandled: true,
		},
		{
			name:        "unknown origin gets no CORS headers",
			cfg:         config.CORSConfig{AllowedOrigins: []string{"https://volunteer.example.org"}},
			origin:      "https://evil.example.com",
			method:      http.MethodGet,
			wantStatus:  http.StatusOK,
			wantHandled: true,
		},
		{
			name:        "preflight short-circuits",
			cfg:         config.CORSConfig{AllowAllOrigins: true},
			origin:      "http://localhost:3000",
			method:      http.MethodOptions,
			wantOrigin:  "http://localhost:3000",
			wantStatus:  http.StatusNoContent,
			wantHandled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handled := false
			handler := CORS(tt.cfg, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handled = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/api/events", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)

			assert.Equal(t, tt.wantStatus, res.Code)
			assert.Equal(t, tt.wantHandled, handled)
			assert.Equal(t, tt.wantOrigin, res.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" {
				assert.Contains(t, res.Header().Get("Access-Control-Allow-Headers"), "Authorization")
			}
		})
	}
}

func TestCORS_SameOriginUntouched(t *testing.T) {
	handler := CORS(config.CORSConfig{}, zerolog.Nop())(okHandler())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, res.Header().Get("Access-Control-Allow-Origin"))
}
