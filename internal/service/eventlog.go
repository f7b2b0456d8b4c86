package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"wear_relay/internal/logger"
	"wear_relay/internal/models"
	"wear_relay/internal/repository"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "COMMAND", "SEND", "DROP", "PERMISSION", "LAUNCH", "FINISH", "ERROR"
}

type EventLogService struct {
	eventRepo repository.EventRepo
	clock     clockwork.Clock
	log       *logger.Logger
}

func NewEventLogService(eventRepo repository.EventRepo, clock clockwork.Clock, log *logger.Logger) *EventLogService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &EventLogService{eventRepo: eventRepo, clock: clock, log: log}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	return from, to, eventType, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.RelayEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}

// Record appends a relay event. Failures are logged and never surface to the
// relay path.
func (s *EventLogService) Record(ctx context.Context, e models.RelayEvent) {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.clock.Now().UTC()
	}
	if err := s.eventRepo.Append(ctx, e); err != nil {
		s.log.Errorw("event_append_failed", "type", e.Type, "path", e.Path, "err", err)
	}
}
