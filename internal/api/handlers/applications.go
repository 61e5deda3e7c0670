package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Togather-Foundation/voluntier/internal/api/problem"
	"github.com/Togather-Foundation/voluntier/internal/auth"
	"github.com/Togather-Foundation/voluntier/internal/domain/applications"
	"github.com/Togather-Foundation/voluntier/internal/domain/failure"
)

// ApplicationService is the lifecycle engine used by ApplicationsHandler.
type ApplicationService interface {
	Apply(ctx context.Context, principal *auth.Principal, eventID int64) (*applications.Application, error)
	SetStatus(ctx context.Context, principal *auth.Principal, applicationID int64, status string) (*applications.Application, error)
	ListAll(ctx context.Context, principal *auth.Principal) ([]applications.AdminView, error)
	ListMine(ctx context.Context, principal *auth.Principal) ([]applications.VolunteerView, error)
}

var (
	errEventIDRequired = failure.New(failure.KindInvalidInput, "eventId is required")
	errStatusRequired  = failure.New(failure.KindInvalidInput, "status is required")
)

type ApplicationsHandler struct {
	Service ApplicationService
	Env     string
}

func NewApplicationsHandler(service ApplicationService, env string) *ApplicationsHandler {
	return &ApplicationsHandler{Service: service, Env: env}
}

type adminApplicationResponse struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	EventID       int64     `json:"eventId"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	EventTitle    string    `json:"eventTitle"`
	ApplicantName string    `json:"applicantName"`
}

type volunteerApplicationResponse struct {
	ID         int64     `json:"id"`
	EventID    int64     `json:"eventId"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	EventTitle string    `json:"eventTitle"`
	Date       string    `json:"date"`
	Location   string    `json:"location"`
}

type applyRequest struct {
	EventID flexInt `json:"eventId"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// ListAll handles GET /api/applications (admin).
func (h *ApplicationsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	items, err := h.Service.ListAll(r.Context(), principal)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}

	out := make([]adminApplicationResponse, 0, len(items))
	for _, a := range items {
		out = append(out, adminApplicationResponse{
			ID:            a.ID,
			UserID:        a.UserID,
			EventID:       a.EventID,
			Status:        string(a.Status),
			CreatedAt:     a.CreatedAt,
			EventTitle:    a.EventTitle,
			ApplicantName: a.ApplicantName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListMine handles GET /api/applications/my.
func (h *ApplicationsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	items, err := h.Service.ListMine(r.Context(), principal)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}

	out := make([]volunteerApplicationResponse, 0, len(items))
	for _, a := range items {
		out = append(out, volunteerApplicationResponse{
			ID:         a.ID,
			EventID:    a.EventID,
			Status:     string(a.Status),
			CreatedAt:  a.CreatedAt,
			EventTitle: a.EventTitle,
			Date:       a.EventDate,
			Location:   a.EventLocation,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Apply handles POST /api/applications.
func (h *ApplicationsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}
	if !req.EventID.Set {
		problem.FromError(w, r, errEventIDRequired, h.Env)
		return
	}

	principal, _ := auth.PrincipalFromContext(r.Context())
	app, err := h.Service.Apply(r.Context(), principal, req.EventID.Value)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": app.ID, "status": string(app.Status)})
}

// SetStatus handles PUT /api/applications/{id} (admin).
func (h *ApplicationsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}

	var req statusRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}
	if req.Status == "" {
		problem.FromError(w, r, errStatusRequired, h.Env)
		return
	}

	principal, _ := auth.PrincipalFromContext(r.Context())
	app, err := h.Service.SetStatus(r.Context(), principal, id, req.Status)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": string(app.Status)})
}
