package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/voluntier/internal/api/problem"
	"github.com/Togather-Foundation/voluntier/internal/domain/failure"
)

var (
	errEmptyBody = failure.New(failure.KindInvalidInput, "request body is required")
	errBadID     = failure.New(failure.KindInvalidInput, "id must be a positive integer")
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a single JSON object into dst. Oversized bodies are
// answered with 413 here; every other failure is returned as InvalidInput
// for the caller to report.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, env string) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypePayloadTooLarge, "Request body too large", err, env,
				problem.WithDetail(fmt.Sprintf("request body must not exceed %d bytes", tooLarge.Limit)))
			return false
		}
		problem.FromError(w, r, failure.Wrap(err, failure.KindInvalidInput, "read request body"), env)
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		problem.FromError(w, r, errEmptyBody, env)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		problem.FromError(w, r, failure.Wrap(err, failure.KindInvalidInput, "malformed JSON"), env)
		return false
	}
	return true
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// flexInt accepts a JSON number or a string holding one; HTML forms post
// numeric fields as strings.
type flexInt struct {
	Value int64
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = flexInt{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*f = flexInt{}
			return nil
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%q is not an integer", raw)
	}
	*f = flexInt{Value: n, Set: true}
	return nil
}
