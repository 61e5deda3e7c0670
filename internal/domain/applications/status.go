package applications

import (
	"fmt"
	"strings"

	"github.com/Togather-Foundation/voluntier/internal/domain/failure"
)

// Status is the review state of an application. Pending is the only
// non-terminal state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var (
	ErrInvalidStatus     = failure.New(failure.KindInvalidInput, "status must be one of pending, approved, rejected")
	ErrInvalidTransition = failure.New(failure.KindInvalidInput, "invalid status transition")
)

// ParseStatus accepts the lower-case status names only.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.TrimSpace(raw)); s {
	case StatusPending, StatusApproved, StatusRejected:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Effect is what committing a transition must do besides writing the new
// status.
type Effect int

const (
	// EffectNone leaves the application untouched.
	EffectNone Effect = iota
	// EffectUpdate writes the new status.
	EffectUpdate
	// EffectApprove writes the new status and takes one place on the event.
	EffectApprove
)

func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectUpdate:
		return "update"
	case EffectApprove:
		return "approve"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

// Transition decides the effect of moving an application from one status
// to another:
//
//	from \ to   pending  approved  rejected
//	pending     none     approve   update
//	approved    invalid  none      invalid
//	rejected    invalid  invalid   none
func Transition(from, to Status) (Effect, error) {
	if !from.Valid() || !to.Valid() {
		return EffectNone, ErrInvalidStatus
	}
	if from == to {
		return EffectNone, nil
	}
	if from.Terminal() {
		return EffectNone, fmt.Errorf("%w: %s application cannot become %s", ErrInvalidTransition, from, to)
	}
	if to == StatusApproved {
		return EffectApprove, nil
	}
	return EffectUpdate, nil
}
