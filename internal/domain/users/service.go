package users

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Togather-Foundation/voluntier/internal/audit"
	"github.com/Togather-Foundation/voluntier/internal/auth"
	"github.com/Togather-Foundation/voluntier/internal/domain/failure"
	"github.com/Togather-Foundation/voluntier/internal/metrics"
	"github.com/Togather-Foundation/voluntier/internal/sanitize"
	"github.com/rs/zerolog"
)

// Service issues sessions for volunteers and administrators.
type Service struct {
	repo   Repository
	tokens *auth.JWTManager
	hasher *auth.PasswordHasher
	audit  *audit.Logger
	logger zerolog.Logger
}

func NewService(repo Repository, tokens *auth.JWTManager, hasher *auth.PasswordHasher, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	if auditLogger == nil {
		auditLogger = audit.Nop()
	}
	return &Service{
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
		audit:  auditLogger,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

// Register creates a volunteer account and returns a session for it.
func (s *Service) Register(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.create(ctx, username, password, false)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("register", string(failure.KindOf(err))).Inc()
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	return s.session(user)
}

// Login verifies credentials. Unknown users and wrong passwords produce the
// same error.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.AuthAttempts.WithLabelValues("login", "rejected").Inc()
		return nil, ErrInvalidLogin
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.AuthAttempts.WithLabelValues("login", "rejected").Inc()
			return nil, ErrInvalidLogin
		}
		return nil, failure.Internal(err, "find user")
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		metrics.AuthAttempts.WithLabelValues("login", "rejected").Inc()
		s.logger.Debug().Str("username", username).Msg("password mismatch")
		return nil, ErrInvalidLogin
	}

	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	return s.session(user)
}

// EnsureAdmin creates the administrator account unless a user with that
// name already exists. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	existing, err := s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if !existing.IsAdmin {
			s.logger.Warn().Str("username", username).Msg("bootstrap username belongs to a non-admin account")
		}
		return false, nil
	case !errors.Is(err, ErrNotFound):
		return false, failure.Internal(err, "find admin")
	}

	user, err := s.create(ctx, username, password, true)
	if errors.Is(err, ErrUsernameTaken) {
		// Created concurrently by another instance.
		return false, nil
	}
	if err != nil {
		s.audit.LogFailure(audit.ActionUserBootstrapped, "", audit.ResourceUser, "", map[string]string{"username": username})
		return false, err
	}

	s.audit.LogSuccess(audit.ActionUserBootstrapped, "", audit.ResourceUser, strconv.FormatInt(user.ID, 10), map[string]string{"username": username})
	return true, nil
}

// CreateAdmin creates an administrator account, failing with
// ErrUsernameTaken if the name is in use.
func (s *Service) CreateAdmin(ctx context.Context, username, password string) (*User, error) {
	user, err := s.create(ctx, username, password, true)
	if err != nil {
		return nil, err
	}
	s.audit.LogSuccess(audit.ActionAdminCreated, "", audit.ResourceUser, strconv.FormatInt(user.ID, 10), map[string]string{"username": user.Username})
	return user, nil
}

func (s *Service) create(ctx context.Context, username, password string, isAdmin bool) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrUsernameRequired
	}
	if sanitize.Changed(username) {
		return nil, ErrUsernameMarkup
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return nil, ErrUsernameTooLong
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, failure.Internal(err, "find user")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, CreateParams{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	})
	if err != nil {
		return nil, failure.Internal(err, "create user")
	}
	return user, nil
}

func (s *Service) session(user *User) (*Session, error) {
	token, err := s.tokens.Generate(user.ID, user.Username, auth.RoleFor(user.IsAdmin))
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}, nil
}
