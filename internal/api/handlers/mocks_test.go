package handlers

import (
	"context"

	"github.com/Togather-Foundation/voluntier/internal/auth"
	"github.com/Togather-Foundation/voluntier/internal/domain/applications"
	"github.com/Togather-Foundation/voluntier/internal/domain/events"
	"github.com/Togather-Foundation/voluntier/internal/domain/users"
	"github.com/stretchr/testify/mock"
)

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, username, password string) (*users.Session, error) {
	args := m.Called(ctx, username, password)
	session, _ := args.Get(0).(*users.Session)
	return session, args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, username, password string) (*users.Session, error) {
	args := m.Called(ctx, username, password)
	session, _ := args.Get(0).(*users.Session)
	return session, args.Error(1)
}

// MockEventService is a mock implementation of EventService
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) List(ctx context.Context) ([]events.Event, error) {
	args := m.Called(ctx)
	return args.Get(0).([]events.Event), args.Error(1)
}

func (m *MockEventService) Get(ctx context.Context, id int64) (*events.Event, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*events.Event)
	return event, args.Error(1)
}

func (m *MockEventService) Create(ctx context.Context, principal *auth.Principal, params events.CreateParams) (*events.Event, error) {
	args := m.Called(ctx, principal, params)
	event, _ := args.Get(0).(*events.Event)
	return event, args.Error(1)
}

func (m *MockEventService) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	args := m.Called(ctx, principal, id)
	return args.Error(0)
}

// MockApplicationService is a mock implementation of ApplicationService
type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) Apply(ctx context.Context, principal *auth.Principal, eventID int64) (*applications.Application, error) {
	args := m.Called(ctx, principal, eventID)
	app, _ := args.Get(0).(*applications.Application)
	return app, args.Error(1)
}

func (m *MockApplicationService) SetStatus(ctx context.Context, principal *auth.Principal, applicationID int64, status string) (*applications.Application, error) {
	args := m.Called(ctx, principal, applicationID, status)
	app, _ := args.Get(0).(*applications.Application)
	return app, args.Error(1)
}

func (m *MockApplicationService) ListAll(ctx context.Context, principal *auth.Principal) ([]applications.AdminView, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).([]applications.AdminView), args.Error(1)
}

func (m *MockApplicationService) ListMine(ctx context.Context, principal *auth.Principal) ([]applications.VolunteerView, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).([]applications.VolunteerView), args.Error(1)
}
