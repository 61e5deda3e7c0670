package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/voluntier/internal/domain/events"
)

type EventRepository struct {
	db *sql.DB
	tx *sql.Tx
}

const eventColumns = `id, title, description, event_date, location, max_applicants, current_applicants, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*events.Event, error) {
	var e events.Event
	if err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Date,
		&e.Location,
		&e.MaxApplicants,
		&e.CurrentApplicants,
		timestamp{&e.CreatedAt},
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	rows, err := pick(r.db, r.tx).QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := []events.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*events.Event, error) {
	e, err := scanEvent(pick(r.db, r.tx).QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return e, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	e, err := scanEvent(pick(r.db, r.tx).QueryRowContext(ctx, `
INSERT INTO events (title, description, event_date, location, max_applicants)
VALUES (?, ?, ?, ?, ?)
RETURNING `+eventColumns,
		params.Title, params.Description, params.Date, params.Location, params.MaxApplicants,
	))
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

func (r *EventRepository) DeleteApplications(ctx context.Context, eventID int64) (int64, error) {
	res, err := pick(r.db, r.tx).ExecContext(ctx, `DELETE FROM applications WHERE event_id = ?`, eventID)
	if err != nil {
		return 0, fmt.Errorf("delete applications for event %d: %w", eventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete applications for event %d: %w", eventID, err)
	}
	return n, nil
}

func (r *EventRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := pick(r.db, r.tx).ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	if n == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	return withTx(ctx, r.db, r.tx, func(tx *sql.Tx) error {
		return fn(ctx, &EventRepository{db: r.db, tx: tx})
	})
}
