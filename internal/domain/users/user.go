package users

import (
	"context"
	"time"

	"github.com/Togather-Foundation/voluntier/internal/domain/failure"
)

var (
	ErrNotFound         = failure.New(failure.KindNotFound, "user not found")
	ErrUsernameTaken    = failure.New(failure.KindConflict, "username already exists")
	ErrInvalidLogin     = failure.New(failure.KindUnauthenticated, "invalid username or password")
	ErrUsernameRequired = failure.New(failure.KindInvalidInput, "username and password are required")
	ErrUsernameMarkup   = failure.New(failure.KindInvalidInput, "username must be plain text")
	ErrUsernameTooLong  = failure.New(failure.KindInvalidInput, "username must be at most 64 characters")
)

// MaxUsernameLength bounds usernames in characters.
const MaxUsernameLength = 64

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

type CreateParams struct {
	Username     string
	PasswordHash string
	IsAdmin      bool
}

// Repository is the user store. GetByUsername returns ErrNotFound for an
// unknown name; Create returns ErrUsernameTaken when the name is in use.
type Repository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, params CreateParams) (*User, error)
}

// Session is the result of a successful register or login.
type Session struct {
	Token    string
	UserID   int64
	Username string
	IsAdmin  bool
}
