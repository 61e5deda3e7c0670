package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/voluntier/internal/domain/applications"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ApplicationRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const applicationColumns = `id, user_id, event_id, status, created_at, updated_at`

func scanApplication(row pgx.Row) (*applications.Application, error) {
	var (
		a      applications.Application
		status string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.EventID, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = applications.Status(status)
	return &a, nil
}

func (r *ApplicationRepository) FindByUserAndEvent(ctx context.Context, userID, eventID int64) (*applications.Application, error) {
	a, err := scanApplication(pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE user_id = $1 AND event_id = $2`,
		userID, eventID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, applications.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return a, nil
}

// LockEvent takes a row lock on the event so concurrent applies and
// approvals for it run one at a time.
func (r *ApplicationRepository) LockEvent(ctx context.Context, eventID int64) (*applications.EventCapacity, error) {
	c := applications.EventCapacity{EventID: eventID}
	err := pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT max_applicants, current_applicants FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&c.MaxApplicants, &c.CurrentApplicants)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, applications.ErrEventNotFound
		}
		return nil, fmt.Errorf("lock event %d: %w", eventID, err)
	}
	return &c, nil
}

func (r *ApplicationRepository) Create(ctx context.Context, userID, eventID int64, status applications.Status) (*applications.Application, error) {
	a, err := scanApplication(pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO applications (user_id, event_id, status)
VALUES ($1, $2, $3)
RETURNING `+applicationColumns,
		userID, eventID, string(status),
	))
	if err != nil {
		switch pgErrorCode(err) {
		case codeUniqueViolation:
			return nil, applications.ErrAlreadyApplied
		case codeForeignKeyViolation:
			if pgConstraint(err) == constraintApplicationUser {
				return nil, applications.ErrUnknownApplicant
			}
			return nil, applications.ErrEventNotFound
		}
		return nil, fmt.Errorf("insert application: %w", err)
	}
	return a, nil
}

func (r *ApplicationRepository) LockByID(ctx context.Context, id int64) (*applications.Application, error) {
	a, err := scanApplication(pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, applications.ErrNotFound
		}
		return nil, fmt.Errorf("lock application %d: %w", id, err)
	}
	return a, nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id int64, status applications.Status) (*applications.Application, error) {
	a, err := scanApplication(pick(r.pool, r.tx).QueryRow(ctx, `
UPDATE applications
   SET status = $2, updated_at = now()
 WHERE id = $1
RETURNING `+applicationColumns,
		id, string(status),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, applications.ErrNotFound
		}
		return nil, fmt.Errorf("update application %d: %w", id, err)
	}
	return a, nil
}

func (r *ApplicationRepository) IncrementApproved(ctx context.Context, eventID int64) error {
	q := pick(r.pool, r.tx)
	tag, err := q.Exec(ctx, `
UPDATE events
   SET current_applicants = current_applicants + 1
 WHERE id = $1
   AND current_applicants < max_applicants
`, eventID)
	if err != nil {
		if pgErrorCode(err) == codeCheckViolation {
			return applications.ErrEventFull
		}
		return fmt.Errorf("increment approved for event %d: %w", eventID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
		return fmt.Errorf("check event %d: %w", eventID, err)
	}
	if !exists {
		return applications.ErrEventNotFound
	}
	return applications.ErrEventFull
}

func (r *ApplicationRepository) ListAll(ctx context.Context) ([]applications.AdminView, error) {
	rows, err := pick(r.pool, r.tx).Query(ctx, `
SELECT a.id, a.user_id, a.event_id, a.status, a.created_at, a.updated_at, e.title, u.username
  FROM applications a
  JOIN events e ON e.id = a.event_id
  JOIN users u ON u.id = a.user_id
 ORDER BY a.id DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	items := []applications.AdminView{}
	for rows.Next() {
		var (
			v      applications.AdminView
			status string
		)
		if err := rows.Scan(&v.ID, &v.UserID, &v.EventID, &status, &v.CreatedAt, &v.UpdatedAt, &v.EventTitle, &v.ApplicantName); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		v.Status = applications.Status(status)
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return items, nil
}

func (r *ApplicationRepository) ListByUser(ctx context.Context, userID int64) ([]applications.VolunteerView, error) {
	rows, err := pick(r.pool, r.tx).Query(ctx, `
SELECT a.id, a.user_id, a.event_id, a.status, a.created_at, a.updated_at, e.title, e.event_date, e.location
  FROM applications a
  JOIN events e ON e.id = a.event_id
 WHERE a.user_id = $1
 ORDER BY a.id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications for user %d: %w", userID, err)
	}
	defer rows.Close()

	items := []applications.VolunteerView{}
	for rows.Next() {
		var (
			v      applications.VolunteerView
			status string
		)
		if err := rows.Scan(&v.ID, &v.UserID, &v.EventID, &status, &v.CreatedAt, &v.UpdatedAt, &v.EventTitle, &v.EventDate, &v.EventLocation); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		v.Status = applications.Status(status)
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return items, nil
}

func (r *ApplicationRepository) WithTx(ctx context.Context, fn func(context.Context, applications.Repository) error) error {
	return withTx(ctx, r.pool, r.tx, func(tx pgx.Tx) error {
		return fn(ctx, &ApplicationRepository{pool: r.pool, tx: tx})
	})
}
