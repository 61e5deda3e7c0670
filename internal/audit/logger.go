// Package audit records administrative mutations as structured log entries.
package audit

import (
	"time"

	"github.com/rs/zerolog"
)

// Audit actions.
const (
	ActionEventCreated      = "event.created"
	ActionEventDeleted      = "event.deleted"
	ActionApplicationStatus = "application.status_changed"
	ActionUserBootstrapped  = "user.bootstrapped"
	ActionAdminCreated      = "user.admin_created"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	ResourceEvent       = "event"
	ResourceApplication = "application"
	ResourceUser        = "user"

	systemActor = "system"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp    time.Time         `json:"timestamp"`
	Action       string            `json:"action"`
	Actor        string            `json:"actor"`
	ResourceType string            `json:"resource_type,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	Status       string            `json:"status"`
	Details      map[string]string `json:"details,omitempty"`
}

// Logger writes audit entries under the "audit" key of a zerolog event.
type Logger struct {
	output zerolog.Logger
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{output: logger.With().Str("component", "audit").Logger()}
}

// Nop returns a Logger that discards every entry.
func Nop() *Logger {
	return &Logger{output: zerolog.Nop()}
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Actor == "" {
		entry.Actor = systemActor
	}

	ev := l.output.Info()
	if entry.Status == StatusFailure {
		ev = l.output.Warn()
	}
	ev.Interface("audit", entry).Msg(entry.Action)
}

func (l *Logger) LogSuccess(action, actor, resourceType, resourceID string, details map[string]string) {
	l.Log(Entry{
		Action:       action,
		Actor:        actor,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Status:       StatusSuccess,
		Details:      details,
	})
}

func (l *Logger) LogFailure(action, actor, resourceType, resourceID string, details map[string]string) {
	l.Log(Entry{
		Action:       action,
		Actor:        actor,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Status:       StatusFailure,
		Details:      details,
	})
}
