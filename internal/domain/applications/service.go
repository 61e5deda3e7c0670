package applications

import (
	"context"
	"errors"
	"strconv"

	"github.com/Togather-Foundation/voluntier/internal/audit"
	"github.com/Togather-Foundation/voluntier/internal/auth"
	"github.com/Togather-Foundation/voluntier/internal/domain/failure"
	"github.com/Togather-Foundation/voluntier/internal/metrics"
	"github.com/rs/zerolog"
)

// Service is the application lifecycle engine. Every multi-step operation
// runs in a single store transaction.
type Service struct {
	repo   Repository
	audit  *audit.Logger
	logger zerolog.Logger
}

func NewService(repo Repository, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	if auditLogger == nil {
		auditLogger = audit.Nop()
	}
	return &Service{
		repo:   repo,
		audit:  auditLogger,
		logger: logger.With().Str("component", "applications").Logger(),
	}
}

// Apply files a pending application for the caller. Submitting does not
// take a place on the event; only approval does.
func (s *Service) Apply(ctx context.Context, principal *auth.Principal, eventID int64) (*Application, error) {
	if err := auth.RequireUser(principal); err != nil {
		return nil, err
	}
	if eventID <= 0 {
		metrics.ApplicationsSubmitted.WithLabelValues("event_missing").Inc()
		return nil, ErrEventNotFound
	}

	var created *Application
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		capacity, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}

		existing, err := tx.FindByUserAndEvent(ctx, principal.UserID, eventID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if existing != nil {
			return ErrAlreadyApplied
		}

		if capacity.Full() {
			return ErrEventFull
		}

		created, err = tx.Create(ctx, principal.UserID, eventID, StatusPending)
		return err
	})
	metrics.ApplicationsSubmitted.WithLabelValues(applyOutcome(err)).Inc()
	if err != nil {
		return nil, failure.Internal(err, "apply")
	}

	s.logger.Info().
		Int64("application_id", created.ID).
		Int64("event_id", eventID).
		Int64("user_id", principal.UserID).
		Msg("application submitted")
	return created, nil
}

// SetStatus moves an application to a new status. Approving a pending
// application takes one place on its event in the same transaction.
func (s *Service) SetStatus(ctx context.Context, principal *auth.Principal, applicationID int64, rawStatus string) (*Application, error) {
	if err := auth.RequireAdmin(principal); err != nil {
		return nil, err
	}
	to, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	if applicationID <= 0 {
		return nil, ErrNotFound
	}

	var (
		result *Application
		from   Status
		effect Effect
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		current, err := tx.LockByID(ctx, applicationID)
		if err != nil {
			return err
		}
		from = current.Status

		effect, err = Transition(current.Status, to)
		if err != nil {
			return err
		}

		switch effect {
		case EffectNone:
			result = current
			return nil
		case EffectApprove:
			capacity, err := tx.LockEvent(ctx, current.EventID)
			if err != nil {
				return err
			}
			if capacity.Full() {
				return ErrEventFull
			}
			if err := tx.IncrementApproved(ctx, current.EventID); err != nil {
				return err
			}
		}

		result, err = tx.UpdateStatus(ctx, applicationID, to)
		return err
	})
	if err != nil {
		return nil, failure.Internal(err, "set application status")
	}

	if effect != EffectNone {
		metrics.ApplicationTransitions.WithLabelValues(string(from), string(to)).Inc()
		s.audit.LogSuccess(audit.ActionApplicationStatus, principal.Username, audit.ResourceApplication, strconv.FormatInt(applicationID, 10), map[string]string{
			"from":     string(from),
			"to":       string(to),
			"event_id": strconv.FormatInt(result.EventID, 10),
		})
	}
	return result, nil
}

// ListAll returns every application with event title and applicant name,
// newest first. Admin only.
func (s *Service) ListAll(ctx context.Context, principal *auth.Principal) ([]AdminView, error) {
	if err := auth.RequireAdmin(principal); err != nil {
		return nil, err
	}
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, failure.Internal(err, "list applications")
	}
	if items == nil {
		items = []AdminView{}
	}
	return items, nil
}

// ListMine returns the caller's applications with event details, newest
// first.
func (s *Service) ListMine(ctx context.Context, principal *auth.Principal) ([]VolunteerView, error) {
	if err := auth.RequireUser(principal); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByUser(ctx, principal.UserID)
	if err != nil {
		return nil, failure.Internal(err, "list my applications")
	}
	if items == nil {
		items = []VolunteerView{}
	}
	return items, nil
}

func applyOutcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, ErrAlreadyApplied):
		return "duplicate"
	case errors.Is(err, ErrEventNotFound):
		return "event_missing"
	case errors.Is(err, ErrEventFull):
		return "event_full"
	case errors.Is(err, ErrUnknownApplicant):
		return "unknown_applicant"
	default:
		return "error"
	}
}
