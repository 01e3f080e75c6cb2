package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/cache"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/events"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/repositories"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/utils"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ===== REQUEST / RESPONSE TYPES =====

type StartSessionRequest struct {
	CandidateName string                 `json:"candidateName" validate:"required,min=1,max=255"`
	ExamID        string                 `json:"examId" validate:"omitempty,max=255"`
	Metadata      map[string]interface{} `json:"metadata"`
}

type EndSessionRequest struct {
	SessionID string                 `json:"sessionId" validate:"required"`
	EndReason string                 `json:"endReason" validate:"omitempty,max=255"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// SessionDetail is a session record plus its full event log, most recent first
type SessionDetail struct {
	Session *models.Session `json:"session"`
	Events  []*models.Event `json:"events"`
}

// SessionService manages the proctoring session lifecycle
type SessionService interface {
	Start(ctx context.Context, req *StartSessionRequest) (*models.Session, error)
	End(ctx context.Context, req *EndSessionRequest) (*models.Session, error)
	Get(ctx context.Context, sessionID string) (*SessionDetail, error)
}

type sessionService struct {
	sessions  repositories.SessionRepository
	events    repositories.EventRepository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewSessionService(
	sessions repositories.SessionRepository,
	eventsRepo repositories.EventRepository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
) SessionService {
	return &sessionService{
		sessions:  sessions,
		events:    eventsRepo,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== LIFECYCLE OPERATIONS =====

func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest) (*models.Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	examID := req.ExamID
	if examID == "" {
		examID = models.DefaultExamID
	}

	now := time.Now()
	session := &models.Session{
		SessionID:     uuid.NewString(),
		CandidateName: req.CandidateName,
		ExamID:        examID,
		Status:        models.SessionActive,
		StartTime:     now,
		LastActivity:  now,
		Metadata:      datatypes.JSONMap(req.Metadata),
	}

	// The session record is written first; the caller only sees the id after
	// it is durable.
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Proctoring session started",
		"session_id", session.SessionID,
		"candidate", session.CandidateName,
		"exam_id", session.ExamID)

	// Best effort from here on: a failed lifecycle event or alert must not
	// fail session creation.
	s.logLifecycleEvent(ctx, session, models.EventSessionStart, datatypes.JSONMap{
		"candidate_name": session.CandidateName,
		"exam_id":        session.ExamID,
	})
	s.publishLifecycle(ctx, events.EventSessionStarted, session, "")

	return session, nil
}

func (s *sessionService) End(ctx context.Context, req *EndSessionRequest) (*models.Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	session, err := s.sessions.GetBySessionID(ctx, req.SessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	// Ending an already-ended session is a not-found, not a no-op.
	if session.IsTerminal() {
		return nil, ErrSessionNotFound
	}

	endTime := time.Now()
	duration := int(endTime.Sub(session.StartTime).Seconds())

	merged := mergeMetadata(session.Metadata, req.Metadata)
	if req.EndReason != "" {
		merged["end_reason"] = req.EndReason
	}

	matched, err := s.sessions.EndActive(ctx, req.SessionID, repositories.SessionEnd{
		Status:   models.SessionCompleted,
		EndTime:  endTime,
		Duration: duration,
		Metadata: merged,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	if !matched {
		// Lost the race against a concurrent End.
		return nil, ErrSessionNotFound
	}

	session.Status = models.SessionCompleted
	session.EndTime = &endTime
	session.Duration = &duration
	session.LastActivity = endTime
	session.Metadata = merged

	s.logger.Info("Proctoring session ended",
		"session_id", session.SessionID,
		"duration_seconds", duration,
		"end_reason", req.EndReason)

	s.invalidateSessionCache(ctx, session.SessionID)
	s.logLifecycleEvent(ctx, session, models.EventSessionEnd, datatypes.JSONMap{
		"duration":   duration,
		"end_reason": req.EndReason,
	})
	s.publishLifecycle(ctx, events.EventSessionEnded, session, req.EndReason)

	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*SessionDetail, error) {
	session, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	// All events, most recent first. Limit 0 disables paging.
	sessionEvents, _, err := s.events.ListBySession(ctx, sessionID, repositories.EventFilters{
		SortBy:    "timestamp",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list session events: %w", err)
	}

	return &SessionDetail{Session: session, Events: sessionEvents}, nil
}

// ===== HELPERS =====

// logLifecycleEvent appends a lifecycle event for the session. Failures are
// logged and swallowed: the primary operation has already succeeded.
func (s *sessionService) logLifecycleEvent(ctx context.Context, session *models.Session, eventType models.EventType, details datatypes.JSONMap) {
	event := &models.Event{
		SessionID: session.SessionID,
		Type:      eventType,
		Timestamp: time.Now(),
		Severity:  models.SeverityInfo,
		Source:    models.SourceSystem,
		Details:   details,
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to log lifecycle event",
			"session_id", session.SessionID,
			"event_type", eventType,
			"error", err)
	}
}

func (s *sessionService) publishLifecycle(ctx context.Context, eventType events.EventType, session *models.Session, endReason string) {
	if s.publisher == nil {
		return
	}
	alert := events.NewAlertEvent(eventType, events.SessionLifecycleEvent{
		SessionID:     session.SessionID,
		CandidateName: session.CandidateName,
		ExamID:        session.ExamID,
		Status:        string(session.Status),
		StartTime:     session.StartTime,
		EndTime:       session.EndTime,
		Duration:      session.Duration,
		EndReason:     endReason,
	})
	if err := s.publisher.PublishAlertEvent(ctx, alert); err != nil {
		s.logger.Warn("Failed to publish session lifecycle event",
			"session_id", session.SessionID,
			"event_type", eventType,
			"error", err)
	}
}

func (s *sessionService) invalidateSessionCache(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, sessionCacheKey(sessionID)); err != nil {
		s.logger.Warn("Failed to invalidate session cache", "session_id", sessionID, "error", err)
	}
}

func sessionCacheKey(sessionID string) string {
	return "proctoring:session:" + sessionID
}

func mergeMetadata(base datatypes.JSONMap, extra map[string]interface{}) datatypes.JSONMap {
	merged := datatypes.JSONMap{}
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
