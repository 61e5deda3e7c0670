package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Togather-Foundation/voluntier/internal/api/problem"
	"github.com/Togather-Foundation/voluntier/internal/auth"
	"github.com/Togather-Foundation/voluntier/internal/domain/events"
)

// EventService is the event catalog used by EventsHandler.
type EventService interface {
	List(ctx context.Context) ([]events.Event, error)
	Get(ctx context.Context, id int64) (*events.Event, error)
	Create(ctx context.Context, principal *auth.Principal, params events.CreateParams) (*events.Event, error)
	Delete(ctx context.Context, principal *auth.Principal, id int64) error
}

type EventsHandler struct {
	Service EventService
	Env     string
}

func NewEventsHandler(service EventService, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type eventResponse struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Date              string    `json:"date"`
	Location          string    `json:"location"`
	MaxApplicants     int       `json:"maxApplicants"`
	CurrentApplicants int       `json:"currentApplicants"`
	CreatedAt         time.Time `json:"createdAt"`
}

func newEventResponse(e events.Event) eventResponse {
	return eventResponse{
		ID:                e.ID,
		Title:             e.Title,
		Description:       e.Description,
		Date:              e.Date,
		Location:          e.Location,
		MaxApplicants:     e.MaxApplicants,
		CurrentApplicants: e.CurrentApplicants,
		CreatedAt:         e.CreatedAt,
	}
}

type createEventRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Date          string  `json:"date"`
	Location      string  `json:"location"`
	MaxApplicants flexInt `json:"maxApplicants"`
}

// List handles GET /api/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}

	out := make([]eventResponse, 0, len(items))
	for _, e := range items {
		out = append(out, newEventResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, newEventResponse(*event))
}

// Create handles POST /api/events.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	principal, _ := auth.PrincipalFromContext(r.Context())
	event, err := h.Service.Create(r.Context(), principal, events.CreateParams{
		Title:         req.Title,
		Description:   req.Description,
		Date:          req.Date,
		Location:      req.Location,
		MaxApplicants: int(req.MaxApplicants.Value),
	})
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": event.ID})
}

// Delete handles DELETE /api/events/{id}.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}

	principal, _ := auth.PrincipalFromContext(r.Context())
	if err := h.Service.Delete(r.Context(), principal, id); err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Event deleted successfully"})
}
