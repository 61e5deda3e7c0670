package handlers

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/voluntier/internal/api/problem"
	"github.com/Togather-Foundation/voluntier/internal/domain/users"
)

// UserService is the credential service used by AuthHandler.
type UserService interface {
	Register(ctx context.Context, username, password string) (*users.Session, error)
	Login(ctx context.Context, username, password string) (*users.Session, error)
}

type AuthHandler struct {
	Users UserService
	Env   string
}

func NewAuthHandler(service UserService, env string) *AuthHandler {
	return &AuthHandler{Users: service, Env: env}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token    string `json:"token"`
	IsAdmin  bool   `json:"isAdmin"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

func newSessionResponse(s *users.Session) sessionResponse {
	return sessionResponse{Token: s.Token, IsAdmin: s.IsAdmin, UserID: s.UserID, Username: s.Username}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	session, err := h.Users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	session, err := h.Users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}
