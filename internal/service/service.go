package service

import (
	"context"

	"fan_controller/internal/config"
	"fan_controller/internal/control"
	"fan_controller/internal/logger"
	"fan_controller/internal/models"
	"fan_controller/internal/repository"
)

// Authorization guards the settings endpoints with a single operator account.
type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	EnsureOperator(ctx context.Context, username, password string) (bool, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Settings is the only writer of the runtime configuration.
type Settings interface {
	Get(ctx context.Context) SettingsView
	SetToolPath(ctx context.Context, path string) (SettingsView, error)
	SetInterval(ctx context.Context, seconds int) (SettingsView, error)
}

// Monitoring exposes the latest controller snapshot.
type Monitoring interface {
	GetState(ctx context.Context) (models.FanState, error)
}

// EventLog exposes the append-only controller log with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.FanEvent, error)
}

// Feed streams controller snapshots as they are recorded.
type Feed interface {
	Subscribe() (<-chan models.FanState, func())
}

// Controller runs the fan control loop until ctx is cancelled.
type Controller interface {
	Run(ctx context.Context) error
}

// Service aggregates all sub-services.
type Service struct {
	Settings
	Monitoring
	EventLog
	Controller
	Authorization
	Feed
}

// Deps are the non-repository collaborators the services need.
type Deps struct {
	Holder     *config.Holder
	Store      SettingsStore
	Sensor     control.Sensor
	Actuator   control.Actuator
	SigningKey []byte
	Log        *logger.Logger
}

// NewService wires the repository layer and runtime collaborators into
// concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	feed := NewStateFeed()
	return &Service{
		Settings:      NewSettingsService(deps.Holder, deps.Store, repos.EventRepo, deps.Log),
		Monitoring:    NewMonitoringService(repos.StateRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Controller:    NewControllerService(deps.Holder, deps.Sensor, deps.Actuator, repos.StateRepo, repos.EventRepo, feed, deps.Log),
		Authorization: NewAuthService(repos.Auth, deps.SigningKey),
		Feed:          feed,
	}
}
