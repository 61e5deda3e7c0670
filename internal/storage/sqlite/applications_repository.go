package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/voluntier/internal/domain/applications"
)

type ApplicationRepository struct {
	db *sql.DB
	tx *sql.Tx
}

const applicationColumns = `id, user_id, event_id, status, created_at, updated_at`

func scanApplication(row rowScanner) (*applications.Application, error) {
	var (
		a      applications.Application
		status string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.EventID, &status, timestamp{&a.CreatedAt}, timestamp{&a.UpdatedAt}); err != nil {
		return nil, err
	}
	a.Status = applications.Status(status)
	return &a, nil
}

func (r *ApplicationRepository) FindByUserAndEvent(ctx context.Context, userID, eventID int64) (*applications.Application, error) {
	a, err := scanApplication(pick(r.db, r.tx).QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE user_id = ? AND event_id = ?`,
		userID, eventID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, applications.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return a, nil
}

// LockEvent reads the event's capacity. The single connection already
// serializes transactions, so no row lock is taken.
func (r *ApplicationRepository) LockEvent(ctx context.Context, eventID int64) (*applications.EventCapacity, error) {
	c := applications.EventCapacity{EventID: eventID}
	err := pick(r.db, r.tx).QueryRowContext(ctx,
		`SELECT max_applicants, current_applicants FROM events WHERE id = ?`,
		eventID,
	).Scan(&c.MaxApplicants, &c.CurrentApplicants)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, applications.ErrEventNotFound
		}
		return nil, fmt.Errorf("lock event %d: %w", eventID, err)
	}
	return &c, nil
}

func (r *ApplicationRepository) Create(ctx context.Context, userID, eventID int64, status applications.Status) (*applications.Application, error) {
	a, err := scanApplication(pick(r.db, r.tx).QueryRowContext(ctx, `
INSERT INTO applications (user_id, event_id, status)
VALUES (?, ?, ?)
RETURNING `+applicationColumns,
		userID, eventID, string(status),
	))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, applications.ErrAlreadyApplied
		case isForeignKeyViolation(err):
			return nil, r.missingParent(ctx, eventID)
		}
		return nil, fmt.Errorf("insert application: %w", err)
	}
	return a, nil
}

// missingParent names the reference that broke an insert. SQLite does not
// report which foreign key failed, so the event is checked directly.
func (r *ApplicationRepository) missingParent(ctx context.Context, eventID int64) error {
	var one int
	err := pick(r.db, r.tx).QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, eventID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return applications.ErrEventNotFound
	case err != nil:
		return fmt.Errorf("check event %d: %w", eventID, err)
	}
	return applications.ErrUnknownApplicant
}

func (r *ApplicationRepository) LockByID(ctx context.Context, id int64) (*applications.Application, error) {
	a, err := scanApplication(pick(r.db, r.tx).QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, applications.ErrNotFound
		}
		return nil, fmt.Errorf("lock application %d: %w", id, err)
	}
	return a, nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id int64, status applications.Status) (*applications.Application, error) {
	a, err := scanApplication(pick(r.db, r.tx).QueryRowContext(ctx, `
UPDATE applications
   SET status = ?, updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now')
 WHERE id = ?
RETURNING `+applicationColumns,
		string(status), id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, applications.ErrNotFound
		}
		return nil, fmt.Errorf("update application %d: %w", id, err)
	}
	return a, nil
}

func (r *ApplicationRepository) IncrementApproved(ctx context.Context, eventID int64) error {
	q := pick(r.db, r.tx)
	res, err := q.ExecContext(ctx, `
UPDATE events
   SET current_applicants = current_applicants + 1
 WHERE id = ?
   AND current_applicants < max_applicants
`, eventID)
	if err != nil {
		if isCheckViolation(err) {
			return applications.ErrEventFull
		}
		return fmt.Errorf("increment approved for event %d: %w", eventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment approved for event %d: %w", eventID, err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = ?)`, eventID).Scan(&exists); err != nil {
		return fmt.Errorf("check event %d: %w", eventID, err)
	}
	if !exists {
		return applications.ErrEventNotFound
	}
	return applications.ErrEventFull
}

func (r *ApplicationRepository) ListAll(ctx context.Context) ([]applications.AdminView, error) {
	rows, err := pick(r.db, r.tx).QueryContext(ctx, `
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
		if err := rows.Scan(&v.ID, &v.UserID, &v.EventID, &status, timestamp{&v.CreatedAt}, timestamp{&v.UpdatedAt}, &v.EventTitle, &v.ApplicantName); err != nil {
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
	rows, err := pick(r.db, r.tx).QueryContext(ctx, `
SELECT a.id, a.user_id, a.event_id, a.status, a.created_at, a.updated_at, e.title, e.event_date, e.location
  FROM applications a
  JOIN events e ON e.id = a.event_id
 WHERE a.user_id = ?
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
		if err := rows.Scan(&v.ID, &v.UserID, &v.EventID, &status, timestamp{&v.CreatedAt}, timestamp{&v.UpdatedAt}, &v.EventTitle, &v.EventDate, &v.EventLocation); err != nil {
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
	return withTx(ctx, r.db, r.tx, func(tx *sql.Tx) error {
		return fn(ctx, &ApplicationRepository{db: r.db, tx: tx})
	})
}
