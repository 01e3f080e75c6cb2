package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/cache"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/events"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/repositories"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/utils"
	"gorm.io/datatypes"
)

const (
	defaultQueryLimit = 100
	sessionCacheTTL   = 30 * time.Second
	batchMetadataFlag = "batch"
	metadataIPKey     = "ip_address"
	metadataUserAgent = "user_agent"
)

// ===== REQUEST / RESPONSE TYPES =====

// RequestOrigin carries the caller identity recorded on every event
type RequestOrigin struct {
	IP        string
	UserAgent string
}

type LogEventRequest struct {
	SessionID string                 `json:"sessionId" validate:"required"`
	Type      string                 `json:"type" validate:"required,event_type"`
	Timestamp *time.Time             `json:"timestamp"`
	Severity  string                 `json:"severity" validate:"omitempty,event_severity"`
	Source    string                 `json:"source" validate:"omitempty,event_source"`
	Details   map[string]interface{} `json:"details"`
	Metadata  map[string]interface{} `json:"metadata"`
}

type BatchEventInput struct {
	Type      string                 `json:"type" validate:"required,event_type"`
	Timestamp *time.Time             `json:"timestamp"`
	Severity  string                 `json:"severity" validate:"omitempty,event_severity"`
	Source    string                 `json:"source" validate:"omitempty,event_source"`
	Details   map[string]interface{} `json:"details"`
	Metadata  map[string]interface{} `json:"metadata"`
}

type LogBatchRequest struct {
	SessionID string            `json:"sessionId" validate:"required"`
	Events    []BatchEventInput `json:"events" validate:"required,min=1,dive"`
}

// EventPage is one page of a filtered event query plus the overall total
type EventPage struct {
	Events  []*models.Event `json:"events"`
	Total   int64           `json:"total"`
	HasMore bool            `json:"hasMore"`
}

// EventService validates and appends proctoring events
type EventService interface {
	// LogOne appends a single event. The owning session must exist; its
	// status is deliberately not checked, so a late detection tick landing
	// after End is still recorded.
	LogOne(ctx context.Context, req *LogEventRequest, origin RequestOrigin) (*models.Event, error)
	LogBatch(ctx context.Context, req *LogBatchRequest, origin RequestOrigin) ([]*models.Event, error)
	QueryBySession(ctx context.Context, sessionID string, filters repositories.EventFilters) (*EventPage, error)
}

type eventService struct {
	sessions  repositories.SessionRepository
	events    repositories.EventRepository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewEventService(
	sessions repositories.SessionRepository,
	eventsRepo repositories.EventRepository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
) EventService {
	return &eventService{
		sessions:  sessions,
		events:    eventsRepo,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== APPEND OPERATIONS =====

func (s *eventService) LogOne(ctx context.Context, req *LogEventRequest, origin RequestOrigin) (*models.Event, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.requireSession(ctx, req.SessionID); err != nil {
		return nil, err
	}

	event := s.buildEvent(req.SessionID, BatchEventInput{
		Type:      req.Type,
		Timestamp: req.Timestamp,
		Severity:  req.Severity,
		Source:    req.Source,
		Details:   req.Details,
		Metadata:  req.Metadata,
	}, origin, false)

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	// The event write has succeeded; the activity refresh is a secondary
	// write whose failure is logged, not surfaced.
	if err := s.sessions.TouchActivity(ctx, req.SessionID, event.Timestamp); err != nil {
		s.logger.Warn("Failed to refresh session activity",
			"session_id", req.SessionID,
			"event_id", event.ID,
			"error", err)
	}

	s.publishAlertIfNeeded(ctx, event)

	return event, nil
}

func (s *eventService) LogBatch(ctx context.Context, req *LogBatchRequest, origin RequestOrigin) ([]*models.Event, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.requireSession(ctx, req.SessionID); err != nil {
		return nil, err
	}

	batch := make([]*models.Event, len(req.Events))
	for i, input := range req.Events {
		batch[i] = s.buildEvent(req.SessionID, input, origin, true)
	}

	if err := s.events.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create event batch: %w", err)
	}

	s.logger.Info("Logged event batch",
		"session_id", req.SessionID,
		"count", len(batch))

	if err := s.sessions.TouchActivity(ctx, req.SessionID, time.Now()); err != nil {
		s.logger.Warn("Failed to refresh session activity",
			"session_id", req.SessionID,
			"error", err)
	}

	for _, event := range batch {
		s.publishAlertIfNeeded(ctx, event)
	}

	return batch, nil
}

// ===== QUERY OPERATIONS =====

func (s *eventService) QueryBySession(ctx context.Context, sessionID string, filters repositories.EventFilters) (*EventPage, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, "sessionId is required")
	}

	if filters.Limit <= 0 {
		filters.Limit = defaultQueryLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	page, total, err := s.events.ListBySession(ctx, sessionID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	return &EventPage{
		Events:  page,
		Total:   total,
		HasMore: int64(filters.Offset+len(page)) < total,
	}, nil
}

// ===== HELPERS =====

// requireSession checks session existence regardless of status, consulting the
// cache before the store.
func (s *eventService) requireSession(ctx context.Context, sessionID string) error {
	if s.cache != nil {
		var status string
		err := s.cache.Get(ctx, sessionCacheKey(sessionID), &status)
		if err == nil {
			return nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Session cache lookup failed", "session_id", sessionID, "error", err)
		}
	}

	session, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, sessionCacheKey(sessionID), string(session.Status), sessionCacheTTL); err != nil {
			s.logger.Warn("Session cache store failed", "session_id", sessionID, "error", err)
		}
	}

	return nil
}

func (s *eventService) buildEvent(sessionID string, input BatchEventInput, origin RequestOrigin, batch bool) *models.Event {
	timestamp := time.Now()
	if input.Timestamp != nil {
		timestamp = *input.Timestamp
	}

	severity := models.SeverityInfo
	if input.Severity != "" {
		severity = models.EventSeverity(input.Severity)
	}

	source := models.SourceSystem
	if input.Source != "" {
		source = models.EventSource(input.Source)
	}

	metadata := datatypes.JSONMap{}
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	if origin.IP != "" {
		metadata[metadataIPKey] = origin.IP
	}
	if origin.UserAgent != "" {
		metadata[metadataUserAgent] = origin.UserAgent
	}
	if batch {
		metadata[batchMetadataFlag] = true
	}

	return &models.Event{
		SessionID: sessionID,
		Type:      models.EventType(input.Type),
		Timestamp: timestamp,
		Severity:  severity,
		Source:    source,
		Details:   datatypes.JSONMap(input.Details),
		Metadata:  metadata,
	}
}

// publishAlertIfNeeded forwards reviewer-worthy events to the alert topic.
// Best effort: publish failure never fails the event write.
func (s *eventService) publishAlertIfNeeded(ctx context.Context, event *models.Event) {
	if s.publisher == nil || !isAlertable(event) {
		return
	}

	alert := events.NewAlertEvent(events.EventProctoringAlert, events.ProctoringAlertEvent{
		SessionID:  event.SessionID,
		EventID:    event.ID,
		EventType:  string(event.Type),
		Severity:   string(event.Severity),
		DetectedAt: event.Timestamp,
		Details:    event.Details,
	})
	if err := s.publisher.PublishAlertEvent(ctx, alert); err != nil {
		s.logger.Warn("Failed to publish proctoring alert",
			"session_id", event.SessionID,
			"event_type", event.Type,
			"error", err)
	}
}

func isAlertable(event *models.Event) bool {
	if event.Severity == models.SeverityCritical {
		return true
	}
	switch event.Type {
	case models.EventSuspiciousObject, models.EventForbiddenObject, models.EventMultipleFaces:
		return true
	}
	return false
}
