package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/Togather-Foundation/voluntier/internal/api/problem"
	"github.com/Togather-Foundation/voluntier/internal/audit"
	"github.com/Togather-Foundation/voluntier/internal/auth"
	"github.com/Togather-Foundation/voluntier/internal/config"
	"github.com/Togather-Foundation/voluntier/internal/domain/applications"
	"github.com/Togather-Foundation/voluntier/internal/domain/events"
	"github.com/Togather-Foundation/voluntier/internal/domain/users"
	"github.com/Togather-Foundation/voluntier/internal/storage/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMethodMux(t *testing.T) {
	handlers := map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("GET response"))
		}),
		http.MethodPost: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("POST response"))
		}),
	}
	mux := methodMux("test", handlers)

	tests := []struct {
		name         string
		method       string
		expectStatus int
		expectBody   string
		expectAllow  string
	}{
		{name: "GET allowed", method: http.MethodGet, expectStatus: http.StatusOK, expectBody: "GET response"},
		{name: "POST allowed", method: http.MethodPost, expectStatus: http.StatusCreated, expectBody: "POST response"},
		{name: "PUT not allowed", method: http.MethodPut, expectStatus: http.StatusMethodNotAllowed, expectAllow: "GET, POST"},
		{name: "DELETE not allowed", method: http.MethodDelete, expectStatus: http.StatusMethodNotAllowed, expectAllow: "GET, POST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(tt.method, "/test", nil))

			assert.Equal(t, tt.expectStatus, w.Code)
			if tt.expectBody != "" {
				assert.Equal(t, tt.expectBody, w.Body.String())
			}
			if tt.expectAllow != "" {
				assert.Equal(t, tt.expectAllow, w.Header().Get("Allow"))
				assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
			}
		})
	}
}

type testServer struct {
	*httptest.Server
	t *testing.T
}

func testConfig() config.Config {
	return config.Config{
		Environment: config.EnvTest,
		RateLimit: config.RateLimitConfig{
			PublicPerMinute:   1000,
			AdminPerMinute:    1000,
			LoginPer15Minutes: 1000,
		},
		CORS: config.CORSConfig{AllowAllOrigins: true},
	}
}

func newTestServer(t *testing.T, cfg config.Config) *testServer {
	t.Helper()
	ctx := context.Background()

	repo, err := sqlite.Open(ctx, config.DatabaseConfig{URL: "sqlite::memory:"})
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	logger := zerolog.Nop()
	auditLogger := audit.NewLogger(logger)
	tokens := auth.NewJWTManager("router-test-secret-router-test-secret", time.Hour, "voluntier-test")
	userService := users.NewService(repo.Users(), tokens, auth.NewPasswordHasher(bcrypt.MinCost), auditLogger, logger)

	_, err = userService.EnsureAdmin(ctx, "admin", "admin-password")
	require.NoError(t, err)

	router := NewRouter(Deps{
		Config:       cfg,
		Logger:       logger,
		Store:        repo,
		Tokens:       tokens,
		Users:        userService,
		Events:       events.NewService(repo.Events(), auditLogger, logger),
		Applications: applications.NewService(repo.Applications(), auditLogger, logger),
		Version:      "test",
	})
	t.Cleanup(router.Close)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, t: t}
}

func (s *testServer) do(method, path, token string, body any) (*http.Response, []byte) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp, data
}

func (s *testServer) login(path, username, password string) (string, bool) {
	s.t.Helper()
	resp, data := s.do(http.MethodPost, path, "", map[string]string{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, resp.StatusCode, string(data))
	var out struct {
		Token   string `json:"token"`
		IsAdmin bool   `json:"isAdmin"`
	}
	require.NoError(s.t, json.Unmarshal(data, &out))
	require.NotEmpty(s.t, out.Token)
	return out.Token, out.IsAdmin
}

func problemType(t *testing.T, data []byte) string {
	t.Helper()
	var p problem.ProblemDetails
	require.NoError(t, json.Unmarshal(data, &p), string(data))
	return p.Type
}

func TestRouter_VolunteerFlow(t *testing.T) {
	srv := newTestServer(t, testConfig())

	adminToken, isAdmin := srv.login("/api/login", "admin", "admin-password")
	assert.True(t, isAdmin)
	aliceToken, isAdmin := srv.login("/api/register", "alice", "alice-password")
	assert.False(t, isAdmin)
	bobToken, _ := srv.login("/api/register", "bob", "bob-password")

	// Duplicate registration
	resp, data := srv.do(http.MethodPost, "/api/register", "", map[string]string{"username": "alice", "password": "x"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, problem.TypeConflict, problemType(t, data))

	// Event creation is admin only
	newEvent := map[string]any{"title": "Beach cleanup", "description": "Bring gloves", "date": "2026-07-01", "location": "Harbourfront", "maxApplicants": 1}
	resp, _ = srv.do(http.MethodPost, "/api/events", "", newEvent)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = srv.do(http.MethodPost, "/api/events", aliceToken, newEvent)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = srv.do(http.MethodPost, "/api/events", adminToken, newEvent)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &created))
	eventPath := "/api/events/" + strconv.FormatInt(created.ID, 10)

	resp, data = srv.do(http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Beach cleanup", list[0]["title"])
	assert.EqualValues(t, 0, list[0]["currentApplicants"])

	// Applying
	resp, _ = srv.do(http.MethodPost, "/api/applications", "", map[string]any{"eventId": created.ID})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, data = srv.do(http.MethodPost, "/api/applications", aliceToken, map[string]any{"eventId": created.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var applied struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(data, &applied))
	assert.Equal(t, "pending", applied.Status)

	resp, data = srv.do(http.MethodPost, "/api/applications", aliceToken, map[string]any{"eventId": created.ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, problem.TypeConflict, problemType(t, data))

	resp, data = srv.do(http.MethodPost, "/api/applications", aliceToken, map[string]any{"eventId": 9999})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data = srv.do(http.MethodGet, "/api/applications/my", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []map[string]any
	require.NoError(t, json.Unmarshal(data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "Beach cleanup", mine[0]["eventTitle"])
	assert.Equal(t, "2026-07-01", mine[0]["date"])
	assert.Equal(t, "Harbourfront", mine[0]["location"])

	// Admin review
	resp, _ = srv.do(http.MethodGet, "/api/applications", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = srv.do(http.MethodGet, "/api/applications", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(data, &all))
	require.Len(t, all, 1)
	assert.Equal(t, "alice", all[0]["applicantName"])
	assert.Equal(t, "Beach cleanup", all[0]["eventTitle"])

	appPath := "/api/applications/" + strconv.FormatInt(applied.ID, 10)
	resp, _ = srv.do(http.MethodPut, appPath, aliceToken, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = srv.do(http.MethodPut, appPath, adminToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.JSONEq(t, `{"success":true,"status":"approved"}`, string(data))

	resp, data = srv.do(http.MethodGet, eventPath, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var event map[string]any
	require.NoError(t, json.Unmarshal(data, &event))
	assert.EqualValues(t, 1, event["currentApplicants"])

	// The only place is taken
	resp, data = srv.do(http.MethodPost, "/api/applications", bobToken, map[string]any{"eventId": created.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, problem.TypeCapacityExceeded, problemType(t, data))

	// Deleting
	resp, _ = srv.do(http.MethodDelete, eventPath, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, data = srv.do(http.MethodDelete, eventPath, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Event deleted successfully"}`, string(data))

	resp, data = srv.do(http.MethodGet, eventPath, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, problem.TypeNotFound, problemType(t, data))

	resp, data = srv.do(http.MethodGet, "/api/applications/my", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(data))
}

func TestRouter_LoginFailures(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, data := srv.do(http.MethodPost, "/api/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, problem.TypeUnauthorized, problemType(t, data))

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "invalid username or password", body.Error)

	resp, _ = srv.do(http.MethodPost, "/api/login", "", map[string]string{"username": "nobody", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = srv.do(http.MethodGet, "/api/applications/my", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_LoginRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.LoginPer15Minutes = 2
	srv := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		resp, _ := srv.do(http.MethodPost, "/api/login", "", map[string]string{"username": "admin", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, data := srv.do(http.MethodPost, "/api/login", "", map[string]string{"username": "admin", "password": "admin-password"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, problem.TypeRateLimited, problemType(t, data))
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Other tiers are unaffected
	resp, _ = srv.do(http.MethodGet, "/api/events", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_Surface(t *testing.T) {
	srv := newTestServer(t, testConfig())

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantAllow  string
	}{
		{name: "liveness", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
		{name: "readiness", method: http.MethodGet, path: "/readyz", wantStatus: http.StatusOK},
		{name: "version", method: http.MethodGet, path: "/version", wantStatus: http.StatusOK},
		{name: "unknown api route", method: http.MethodGet, path: "/api/nope", wantStatus: http.StatusNotFound},
		{name: "no static dir", method: http.MethodGet, path: "/", wantStatus: http.StatusNotFound},
		{name: "events wrong method", method: http.MethodPatch, path: "/api/events", wantStatus: http.StatusMethodNotAllowed, wantAllow: "GET, POST"},
		{name: "login wrong method", method: http.MethodGet, path: "/api/login", wantStatus: http.StatusMethodNotAllowed, wantAllow: "POST"},
		{name: "application wrong method", method: http.MethodGet, path: "/api/applications/3", wantStatus: http.StatusMethodNotAllowed, wantAllow: "PUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := srv.do(tt.method, tt.path, "", nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			if tt.wantAllow != "" {
				assert.Equal(t, tt.wantAllow, resp.Header.Get("Allow"))
			}
		})
	}

	resp, data := srv.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "voluntier_http_requests_total")
}

func TestRouter_BodyLimits(t *testing.T) {
	srv := newTestServer(t, testConfig())

	huge := map[string]string{"username": string(bytes.Repeat([]byte("a"), 128<<10)), "password": "x"}
	resp, data := srv.do(http.MethodPost, "/api/register", "", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, problem.TypePayloadTooLarge, problemType(t, data))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/login", bytes.NewReader([]byte("{oops")))
	require.NoError(t, err)
	raw, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestRouter_EventCapacityBounds(t *testing.T) {
	srv := newTestServer(t, testConfig())
	adminToken, _ := srv.login("/api/login", "admin", "admin-password")

	for _, capacity := range []any{3000000000, "3000000000", 1000001} {
		event := map[string]any{"title": "Stadium", "date": "2026-07-01", "maxApplicants": capacity}
		resp, data := srv.do(http.MethodPost, "/api/events", adminToken, event)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "capacity %v", capacity)
		assert.Equal(t, problem.TypeValidation, problemType(t, data))
	}

	event := map[string]any{"title": "Stadium", "date": "2026-07-01", "maxApplicants": 1000000}
	resp, data := srv.do(http.MethodPost, "/api/events", adminToken, event)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_StaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>VolunTier</h1>"), 0o644))

	cfg := testConfig()
	cfg.Server.StaticDir = dir
	srv := newTestServer(t, cfg)

	resp, data := srv.do(http.MethodGet, "/admin/applications", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>VolunTier</h1>", string(data))

	resp, _ = srv.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
