package handlers

import (
	"context"
	"net/http"
	"time"

	"fan_controller/internal/models"
	"fan_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

// mockAuth accepts exactly one bearer token when token is set.
type mockAuth struct {
	token     string
	signUpID  int
	signUpErr error
	signInErr error

	lastUsername string
	lastPassword string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastUsername, m.lastPassword = username, password
	return m.signUpID, m.signUpErr
}

func (m *mockAuth) EnsureOperator(ctx context.Context, username, password string) (bool, error) {
	return false, nil
}

func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastUsername, m.lastPassword = username, password
	return m.token, m.signInErr
}

func (m *mockAuth) ParseToken(token string) (int, error) {
	if m.token == "" || token != m.token {
		return 0, service.ErrInvalidToken
	}
	return 1, nil
}

type mockSettings struct {
	view        service.SettingsView
	setErr      error
	lastPath    string
	lastSeconds int
	pathCalls   int
	intvCalls   int
}

func (m *mockSettings) Get(ctx context.Context) service.SettingsView {
	return m.view
}
func (m *mockSettings) SetToolPath(ctx context.Context, path string) (service.SettingsView, error) {
	m.pathCalls++
	m.lastPath = path
	if m.setErr != nil {
		return m.view, m.setErr
	}
	m.view.ToolPath = path
	return m.view, nil
}
func (m *mockSettings) SetInterval(ctx context.Context, seconds int) (service.SettingsView, error) {
	m.intvCalls++
	m.lastSeconds = seconds
	if m.setErr != nil {
		return m.view, m.setErr
	}
	m.view.IntervalSeconds = seconds
	return m.view, nil
}

type mockMonitoring struct {
	state models.FanState
	err   error
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.FanState, error) {
	return m.state, m.err
}

type mockEventLog struct {
	resp     []models.FanEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.FanEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
