package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Togather-Foundation/voluntier/internal/api/problem"
	"github.com/Togather-Foundation/voluntier/internal/domain/events"
	"github.com/Togather-Foundation/voluntier/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func TestEventsHandler_List(t *testing.T) {
	mockService := new(MockEventService)
	handler := NewEventsHandler(mockService, "test")

	mockService.On("List", mock.Anything).Return([]events.Event{
		{ID: 1, Title: "Beach cleanup", Date: "2026-07-01", Location: "Harbourfront", MaxApplicants: 10, CurrentApplicants: 2, CreatedAt: created},
		{ID: 2, Title: "Food bank", Date: "2026-07-08", MaxApplicants: 4, CreatedAt: created},
	}, nil)

	w := httptest.NewRecorder()
	handler.List(w, newRequest(http.MethodGet, "/api/events", "", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Beach cleanup", got[0]["title"])
	assert.EqualValues(t, 10, got[0]["maxApplicants"])
	assert.EqualValues(t, 2, got[0]["currentApplicants"])
	assert.Equal(t, "Harbourfront", got[0]["location"])
	assert.Equal(t, "2026-05-01T09:30:00Z", got[0]["createdAt"])
	mockService.AssertExpectations(t)
}

func TestEventsHandler_ListEmpty(t *testing.T) {
	mockService := new(MockEventService)
	handler := NewEventsHandler(mockService, "test")

	mockService.On("List", mock.Anything).Return([]events.Event(nil), nil)

	w := httptest.NewRecorder()
	handler.List(w, newRequest(http.MethodGet, "/api/events", "", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestEventsHandler_ListFailureHidesDetailInProduction(t *testing.T) {
	mockService := new(MockEventService)
	handler := NewEventsHandler(mockService, "production")

	mockService.On("List", mock.Anything).Return([]events.Event(nil), errors.New("connection reset by peer"))

	w := httptest.NewRecorder()
	handler.List(w, newRequest(http.MethodGet, "/api/events", "", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	p := decodeProblem(t, w)
	assert.Equal(t, problem.TypeServerError, p.Type)
	assert.NotContains(t, p.Detail, "connection reset")
}

func TestEventsHandler_Get(t *testing.T) {
	mockService := new(MockEventService)
	handler := NewEventsHandler(mockService, "test")

	mockService.On("Get", mock.Anything, int64(5)).
		Return(&events.Event{ID: 5, Title: "Tree planting", Date: "2026-08-02", MaxApplicants: 3, CreatedAt: created}, nil)

	req := newRequest(http.MethodGet, "/api/events/5", "", nil)
	req.SetPathValue("id", "5")
	w := httptest.NewRecorder()
	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got eventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(5), got.ID)
	assert.Equal(t, "Tree planting", got.Title)
	mockService.AssertExpectations(t)
}

func TestEventsHandler_GetNotFound(t *testing.T) {
	mockService := new(MockEventService)
	handler := NewEventsHandler(mockService, "test")

	mockService.On("Get", mock.Anything, int64(99)).Return(nil, events.ErrNotFound)

	req := newRequest(http.MethodGet, "/api/events/99", "", nil)
	req.SetPathValue("id", "99")
	w := httptest.NewRecorder()
	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, problem.TypeNotFound, decodeProblem(t, w).Type)
}

func TestEventsHandler_GetBadID(t *testing.T) {
	mockService := new(MockEventService)
	handler := NewEventsHandler(mockService, "test")

	req := newRequest(http.MethodGet, "/api/events/abc", "", nil)
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	handler.Get(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestEventsHandler_Create(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "numeric capacity", body: `{"title":"Beach cleanup","description":"Bring gloves","date":"2026-07-01","location":"Harbourfront","maxApplicants":10}`},
		{name: "string capacity from form", body: `{"title":"Beach cleanup","description":"Bring gloves","date":"2026-07-01","location":"Harbourfront","maxApplicants":"10"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockEventService)
			handler := NewEventsHandler(mockService, "test")

			mockService.On("Create", mock.Anything, adminPrincipal, events.CreateParams{
				Title:         "Beach cleanup",
				Description:   "Bring gloves",
				Date:          "2026-07-01",
				Location:      "Harbourfront",
				MaxApplicants: 10,
			}).Return(&events.Event{ID: 12}, nil)

			w := httptest.NewRecorder()
			handler.Create(w, newRequest(http.MethodPost, "/api/events", tt.body, adminPrincipal))

			assert.Equal(t, http.StatusCreated, w.Code)
			assert.JSONEq(t, `{"id":12}`, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}

func TestEventsHandler_CreateValidationErrors(t *testing.T) {
	mockService := new(MockEventService)
	handler := NewEventsHandler(mockService, "test")

	verr := &validation.Error{Fields: []validation.FieldError{{Field: "maxApplicants", Message: "must be greater than 0"}}}
	mockService.On("Create", mock.Anything, adminPrincipal, mock.Anything).Return(nil, verr)

	w := httptest.NewRecorder()
	handler.Create(w, newRequest(http.MethodPost, "/api/events", `{"title":"x","date":"2026-07-01","maxApplicants":0}`, adminPrincipal))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	p := decodeProblem(t, w)
	assert.Equal(t, problem.TypeValidation, p.Type)
	assert.Contains(t, p.Errors, "maxApplicants")
}

func TestEventsHandler_CreateBadCapacity(t *testing.T) {
	mockService := new(MockEventService)
	handler := NewEventsHandler(mockService, "test")

	w := httptest.NewRecorder()
	handler.Create(w, newRequest(http.MethodPost, "/api/events", `{"title":"x","date":"2026-07-01","maxApplicants":"lots"}`, adminPrincipal))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestEventsHandler_Delete(t *testing.T) {
	mockService := new(MockEventService)
	handler := NewEventsHandler(mockService, "test")

	mockService.On("Delete", mock.Anything, adminPrincipal, int64(3)).Return(nil)

	req := newRequest(http.MethodDelete, "/api/events/3", "", adminPrincipal)
	req.SetPathValue("id", "3")
	w := httptest.NewRecorder()
	handler.Delete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Event deleted successfully"}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestEventsHandler_DeleteNotFound(t *testing.T) {
	mockService := new(MockEventService)
	handler := NewEventsHandler(mockService, "test")

	mockService.On("Delete", mock.Anything, adminPrincipal, int64(3)).Return(events.ErrNotFound)

	req := newRequest(http.MethodDelete, "/api/events/3", "", adminPrincipal)
	req.SetPathValue("id", "3")
	w := httptest.NewRecorder()
	handler.Delete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
