package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Togather-Foundation/voluntier/internal/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID(t *testing.T) {
	var seen string
	handler := CorrelationID(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, res.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.Equal(t, "upstream-id", seen)

	for _, bad := range []string{strings.Repeat("x", maxRequestIDLength+1), "a\"b", "line\nbreak", "spa ce"} {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", bad)
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Len(t, seen, 36, "%q is replaced", bad)
	}
}

func TestValidRequestID(t *testing.T) {
	assert.True(t, validRequestID("9f1c2a3b-7d7e-4b8f-9c1d-0a2b3c4d5e6f"))
	assert.True(t, validRequestID("lb:req_42.a"))
	assert.False(t, validRequestID(""))
	assert.False(t, validRequestID("<script>"))
}

func TestRequestLogging_UsesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	handler := CorrelationID(base)(RequestLogging(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("{}"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
	req.Header.Set("X-Request-ID", "abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	assert.Contains(t, line, `"request_id":"abc"`)
	assert.Contains(t, line, `"status":201`)
	assert.Contains(t, line, `"bytes":2`)
	assert.Contains(t, line, `"path":"/api/events"`)
}

func TestRequestLogging_NamesAuthenticatedCaller(t *testing.T) {
	tokens := auth.NewJWTManager(strings.Repeat("s", 32), time.Hour, "voluntier-test")
	token, err := tokens.Generate(7, "sam", auth.RoleVolunteer)
	require.NoError(t, err)

	var buf bytes.Buffer
	base := zerolog.New(&buf)
	handler := CorrelationID(base)(RequestLogging(base)(
		Authenticate(tokens, "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})),
	))

	req := httptest.NewRequest(http.MethodGet, "/api/applications/my", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	assert.Contains(t, line, `"user_id":7`)
	assert.Contains(t, line, `"is_admin":false`)
	assert.Contains(t, line, `"status":200`)
}

func TestAnnotateCaller_WithoutRequestLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		annotateCaller(context.Background(), &auth.Principal{UserID: 1})
		annotateCaller(context.Background(), nil)
	})
}
