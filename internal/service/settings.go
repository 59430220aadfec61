package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"fan_controller/internal/config"
	"fan_controller/internal/logger"
	"fan_controller/internal/models"
	"fan_controller/internal/repository"

	"github.com/google/uuid"
)

// SettingsStore persists runtime settings across restarts.
type SettingsStore interface {
	Save(rt config.Runtime) error
}

// ErrIntervalOutOfRange is returned for intervals outside
// [config.MinInterval, config.MaxInterval].
var ErrIntervalOutOfRange = fmt.Errorf("interval must be between %d and %d seconds",
	config.MinInterval, config.MaxInterval)

type SettingsService struct {
	holder    *config.Holder
	store     SettingsStore
	eventRepo repository.EventRepo
	log       *logger.Logger

	// serializes read-modify-persist so concurrent requests cannot persist
	// a mix of old and new values
	mu sync.Mutex
}

func NewSettingsService(holder *config.Holder, store SettingsStore, eventRepo repository.EventRepo, log *logger.Logger) *SettingsService {
	return &SettingsService{holder: holder, store: store, eventRepo: eventRepo, log: log}
}

// Get returns the current settings and whether the tool path is usable.
func (s *SettingsService) Get(ctx context.Context) SettingsView {
	return viewOf(s.holder.Get())
}

// SetToolPath stores a new tool path. An empty or missing path is accepted;
// it pauses actuation until a valid path is set.
func (s *SettingsService) SetToolPath(ctx context.Context, path string) (SettingsView, error) {
	path = strings.TrimSpace(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.holder.Get()
	next := prev
	next.ToolPath = path
	if err := s.persist(next); err != nil {
		return viewOf(prev), err
	}
	s.holder.SetToolPath(path)

	s.appendChange(ctx, "tool path changed", map[string]any{
		"from": prev.ToolPath,
		"to":   path,
	})
	return viewOf(next), nil
}

// SetInterval validates and stores a new sampling interval.
func (s *SettingsService) SetInterval(ctx context.Context, seconds int) (SettingsView, error) {
	if !config.ValidInterval(seconds) {
		return s.Get(ctx), ErrIntervalOutOfRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.holder.Get()
	next := prev
	next.IntervalSeconds = seconds
	if err := s.persist(next); err != nil {
		return viewOf(prev), err
	}
	s.holder.SetInterval(seconds)

	s.appendChange(ctx, "sampling interval changed", map[string]any{
		"from": prev.IntervalSeconds,
		"to":   seconds,
	})
	return viewOf(next), nil
}

func (s *SettingsService) persist(rt config.Runtime) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(rt); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

// appendChange logs the change; a failed event write does not undo it.
func (s *SettingsService) appendChange(ctx context.Context, desc string, meta map[string]any) {
	err := s.eventRepo.Append(ctx, models.FanEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        EventConfigChange,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil && s.log != nil {
		s.log.Errorw("settings_event_append_failed", "err", err)
	}
}

func viewOf(rt config.Runtime) SettingsView {
	return SettingsView{
		ToolPath:        rt.ToolPath,
		IntervalSeconds: rt.IntervalSeconds,
		ToolFound:       toolFound(rt.ToolPath),
		MinInterval:     config.MinInterval,
		MaxInterval:     config.MaxInterval,
	}
}

func toolFound(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// IsValidationError reports whether err came from input validation rather
// than from storage.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrIntervalOutOfRange)
}
