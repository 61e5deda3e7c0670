package events

import (
	"context"
	"time"

	"github.com/Togather-Foundation/voluntier/internal/domain/failure"
)

var ErrNotFound = failure.New(failure.KindNotFound, "event not found")

// Event is a volunteer opportunity with a fixed number of approved places.
// CurrentApplicants counts approved applications only and never exceeds
// MaxApplicants.
type Event struct {
	ID                int64
	Title             string
	Description       string
	Date              string
	Location          string
	MaxApplicants     int
	CurrentApplicants int
	CreatedAt         time.Time
}

// Remaining is the number of approvals the event can still take.
func (e Event) Remaining() int {
	if e.CurrentApplicants >= e.MaxApplicants {
		return 0
	}
	return e.MaxApplicants - e.CurrentApplicants
}

type CreateParams struct {
	Title         string `validate:"required,max=200"`
	Description   string `validate:"max=5000"`
	Date          string `validate:"required,max=64"`
	Location      string `validate:"max=300"`
	MaxApplicants int    `validate:"gt=0,max=1000000"`
}

// Repository is the event store. Implementations return ErrNotFound for
// missing rows and run fn inside a single transaction in WithTx; a
// repository already bound to a transaction runs fn in that transaction.
type Repository interface {
	List(ctx context.Context) ([]Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	Create(ctx context.Context, params CreateParams) (*Event, error)
	// DeleteApplications removes every application for the event and
	// returns how many were removed.
	DeleteApplications(ctx context.Context, eventID int64) (int64, error)
	DeleteByID(ctx context.Context, id int64) error

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
