package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/voluntier/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT id, username, password_hash, is_admin, created_at
  FROM users
 WHERE username = $1
`, username)

	var u users.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO users (username, password_hash, is_admin)
VALUES ($1, $2, $3)
RETURNING id, username, password_hash, is_admin, created_at
`, params.Username, params.PasswordHash, params.IsAdmin)

	var u users.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt); err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return nil, users.ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}
