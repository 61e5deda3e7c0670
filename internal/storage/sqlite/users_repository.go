package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/voluntier/internal/domain/users"
)

type UserRepository struct {
	db *sql.DB
	tx *sql.Tx
}

const userColumns = `id, username, password_hash, is_admin, created_at`

func scanUser(row rowScanner) (*users.User, error) {
	var u users.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, timestamp{&u.CreatedAt}); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	u, err := scanUser(pick(r.db, r.tx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	u, err := scanUser(pick(r.db, r.tx).QueryRowContext(ctx, `
INSERT INTO users (username, password_hash, is_admin)
VALUES (?, ?, ?)
RETURNING `+userColumns,
		params.Username, params.PasswordHash, params.IsAdmin,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, users.ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}
