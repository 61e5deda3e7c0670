package applications

import (
	"context"
	"time"

	"github.com/Togather-Foundation/voluntier/internal/domain/failure"
)

var (
	ErrNotFound       = failure.New(failure.KindNotFound, "application not found")
	ErrEventNotFound  = failure.New(failure.KindNotFound, "event not found")
	ErrAlreadyApplied = failure.New(failure.KindConflict, "already applied to this event")
	ErrEventFull      = failure.New(failure.KindCapacityExceeded, "event is full")

	// ErrUnknownApplicant is returned when a token outlives its user row.
	ErrUnknownApplicant = failure.New(failure.KindUnauthenticated, "account no longer exists")
)

// Application is one volunteer's request to join one event.
type Application struct {
	ID        int64
	UserID    int64
	EventID   int64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AdminView is an application joined with its event title and applicant
// username.
type AdminView struct {
	Application
	EventTitle    string
	ApplicantName string
}

// VolunteerView is an application joined with the event details a
// volunteer needs.
type VolunteerView struct {
	Application
	EventTitle    string
	EventDate     string
	EventLocation string
}

// EventCapacity is the capacity slice of an event row.
type EventCapacity struct {
	EventID           int64
	MaxApplicants     int
	CurrentApplicants int
}

func (c EventCapacity) Full() bool {
	return c.CurrentApplicants >= c.MaxApplicants
}

// Repository is the application store.
//
// LockEvent and LockByID lock the returned row for the rest of the
// transaction where the backend supports row locks; on a single-writer
// backend the transaction itself serializes. IncrementApproved must refuse
// to raise the counter past the event's maximum and report ErrEventFull.
// Create reports ErrAlreadyApplied on a (user, event) collision.
type Repository interface {
	FindByUserAndEvent(ctx context.Context, userID, eventID int64) (*Application, error)
	LockEvent(ctx context.Context, eventID int64) (*EventCapacity, error)
	Create(ctx context.Context, userID, eventID int64, status Status) (*Application, error)
	LockByID(ctx context.Context, id int64) (*Application, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Application, error)
	IncrementApproved(ctx context.Context, eventID int64) error
	ListAll(ctx context.Context) ([]AdminView, error)
	ListByUser(ctx context.Context, userID int64) ([]VolunteerView, error)

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
