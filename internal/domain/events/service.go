package events

import (
	"context"
	"strconv"

	"github.com/Togather-Foundation/voluntier/internal/audit"
	"github.com/Togather-Foundation/voluntier/internal/auth"
	"github.com/Togather-Foundation/voluntier/internal/domain/failure"
	"github.com/Togather-Foundation/voluntier/internal/metrics"
	"github.com/Togather-Foundation/voluntier/internal/sanitize"
	"github.com/Togather-Foundation/voluntier/internal/validation"
	"github.com/rs/zerolog"
)

// Service is the event catalog: public reads, admin-only writes.
type Service struct {
	repo      Repository
	validator *validation.Validator
	audit     *audit.Logger
	logger    zerolog.Logger
}

func NewService(repo Repository, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	if auditLogger == nil {
		auditLogger = audit.Nop()
	}
	return &Service{
		repo:      repo,
		validator: validation.New(),
		audit:     auditLogger,
		logger:    logger.With().Str("component", "events").Logger(),
	}
}

// List returns every event in id order. No authentication is required.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, failure.Internal(err, "list events")
	}
	if items == nil {
		items = []Event{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, failure.Internal(err, "get event")
	}
	return event, nil
}

// Create posts a new event with no approved applicants. Text fields are
// stripped of markup before validation.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, params CreateParams) (*Event, error) {
	if err := auth.RequireAdmin(principal); err != nil {
		return nil, err
	}

	params.Title = sanitize.Text(params.Title)
	params.Description = sanitize.Text(params.Description)
	params.Date = sanitize.Text(params.Date)
	params.Location = sanitize.Text(params.Location)

	if err := s.validator.Struct(params); err != nil {
		return nil, err
	}

	event, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, failure.Internal(err, "create event")
	}

	metrics.EventsCreated.Inc()
	s.audit.LogSuccess(audit.ActionEventCreated, principal.Username, audit.ResourceEvent, strconv.FormatInt(event.ID, 10), map[string]string{
		"title":          event.Title,
		"max_applicants": strconv.Itoa(event.MaxApplicants),
	})
	return event, nil
}

// Delete removes an event and all of its applications in one transaction.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	if err := auth.RequireAdmin(principal); err != nil {
		return err
	}
	if id <= 0 {
		return ErrNotFound
	}

	var removed int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if _, err := tx.GetByID(ctx, id); err != nil {
			return err
		}
		n, err := tx.DeleteApplications(ctx, id)
		if err != nil {
			return err
		}
		removed = n
		return tx.DeleteByID(ctx, id)
	})
	if err != nil {
		return failure.Internal(err, "delete event")
	}

	metrics.EventsDeleted.Inc()
	s.audit.LogSuccess(audit.ActionEventDeleted, principal.Username, audit.ResourceEvent, strconv.FormatInt(id, 10), map[string]string{
		"applications_removed": strconv.FormatInt(removed, 10),
	})
	s.logger.Info().Int64("event_id", id).Int64("applications_removed", removed).Msg("event deleted")
	return nil
}
