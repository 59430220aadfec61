package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fan_controller/internal/models"
	"fan_controller/internal/repository"
)

var (
	ErrInvalidTimeRange = errors.New("'from' must be <= 'to'")
	ErrUnknownEventType = fmt.Errorf("unknown event type; expected one of %s", strings.Join(EventTypes, ", "))
)

// EventLogService answers history queries against the event log.
type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// Normalized returns f with both bounds in UTC and Type upper-cased, or an
// error wrapping ErrInvalidTimeRange or ErrUnknownEventType.
func (f LogFilter) Normalized() (LogFilter, error) {
	out := LogFilter{
		From: toUTC(f.From),
		To:   toUTC(f.To),
		Type: strings.ToUpper(strings.TrimSpace(f.Type)),
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return LogFilter{}, ErrInvalidTimeRange
	}
	if out.Type != "" && !IsEventType(out.Type) {
		return LogFilter{}, fmt.Errorf("%w: %q", ErrUnknownEventType, out.Type)
	}
	return out, nil
}

// List returns events matching f, oldest first.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.FanEvent, error) {
	nf, err := f.Normalized()
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, nf.From, nf.To, nf.Type)
}
