// Package problem writes RFC 7807 problem documents.
package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Togather-Foundation/voluntier/internal/domain/failure"
	"github.com/Togather-Foundation/voluntier/internal/validation"
	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

// Problem type URIs, one per failure kind.
const (
	TypeValidation       = "https://voluntier.org/problems/validation-error"
	TypeUnauthorized     = "https://voluntier.org/problems/unauthorized"
	TypeForbidden        = "https://voluntier.org/problems/forbidden"
	TypeNotFound         = "https://voluntier.org/problems/not-found"
	TypeConflict         = "https://voluntier.org/problems/conflict"
	TypeCapacityExceeded = "https://voluntier.org/problems/capacity-exceeded"
	TypeRateLimited      = "https://voluntier.org/problems/rate-limited"
	TypePayloadTooLarge  = "https://voluntier.org/problems/payload-too-large"
	TypeMethodNotAllowed = "https://voluntier.org/problems/method-not-allowed"
	TypeServerError      = "https://voluntier.org/problems/server-error"
)

// ProblemDetails is an RFC 7807 document. Error is an extension member
// carrying the human-readable message under the key browser clients read.
type ProblemDetails struct {
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Status   int                    `json:"status"`
	Detail   string                 `json:"detail,omitempty"`
	Instance string                 `json:"instance,omitempty"`
	Errors   map[string]interface{} `json:"errors,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

type Option func(*ProblemDetails)

func WithDetail(detail string) Option {
	return func(p *ProblemDetails) {
		p.Detail = detail
	}
}

func WithInstance(instance string) Option {
	return func(p *ProblemDetails) {
		p.Instance = instance
	}
}

func WithErrors(errs map[string]interface{}) Option {
	return func(p *ProblemDetails) {
		p.Errors = errs
	}
}

// Write sends a problem document. Server error details are only exposed in
// development and test environments.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	problem := ProblemDetails{
		Type:   typ,
		Title:  title,
		Status: status,
	}

	for _, opt := range opts {
		opt(&problem)
	}

	if problem.Detail == "" && err != nil {
		if status < 500 || env == "development" || env == "test" {
			problem.Detail = err.Error()
		} else {
			problem.Detail = http.StatusText(status)
		}
	}

	if problem.Instance == "" && r != nil {
		problem.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		var ev *zerolog.Event
		if status >= 500 {
			ev = logger.Error()
		} else {
			ev = logger.Warn()
		}
		ev.Err(err).
			Int("status", status).
			Str("type", typ).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(title)
	}

	WriteProblem(w, problem)
}

// FromError maps a domain error to its status and problem type and writes
// it. Validation failures carry per-field messages in "errors".
func FromError(w http.ResponseWriter, r *http.Request, err error, env string) {
	status, typ, title := Classify(err)

	var opts []Option
	var verr *validation.Error
	if errors.As(err, &verr) {
		opts = append(opts, WithErrors(verr.Map()))
	}
	Write(w, r, status, typ, title, err, env, opts...)
}

// Classify returns the HTTP status, problem type and title for err.
func Classify(err error) (int, string, string) {
	switch failure.KindOf(err) {
	case failure.KindInvalidInput:
		return http.StatusBadRequest, TypeValidation, "Invalid request"
	case failure.KindUnauthenticated:
		return http.StatusUnauthorized, TypeUnauthorized, "Unauthorized"
	case failure.KindForbidden:
		return http.StatusForbidden, TypeForbidden, "Forbidden"
	case failure.KindNotFound:
		return http.StatusNotFound, TypeNotFound, "Not found"
	case failure.KindConflict:
		return http.StatusConflict, TypeConflict, "Conflict"
	case failure.KindCapacityExceeded:
		return http.StatusUnprocessableEntity, TypeCapacityExceeded, "Capacity exceeded"
	default:
		return http.StatusInternalServerError, TypeServerError, "Server error"
	}
}

func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	if problem.Error == "" {
		problem.Error = problem.Detail
	}
	if problem.Error == "" {
		problem.Error = problem.Title
	}

	payload, err := json.Marshal(problem)
	if err != nil {
		text := http.StatusText(http.StatusInternalServerError)
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":%q,\"status\":500,\"error\":%q}", text, text)
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(problem.Status)
	_, _ = w.Write(payload)
}
