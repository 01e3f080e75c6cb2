package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of published proctoring alerts
type EventType string

const (
	// Session lifecycle
	EventSessionStarted EventType = "session.started"
	EventSessionEnded   EventType = "session.ended"

	// Detection anomalies worth a reviewer's attention
	EventProctoringAlert EventType = "proctoring.alert"
)

// AlertEvent is the base structure for all published proctoring events
type AlertEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewAlertEvent builds a publishable event with identity and envelope fields set
func NewAlertEvent(eventType EventType, data interface{}) *AlertEvent {
	return &AlertEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "proctoring-service",
		Version:   "1.0",
		Data:      data,
	}
}

// Alert payloads

type SessionLifecycleEvent struct {
	SessionID     string     `json:"session_id"`
	CandidateName string     `json:"candidate_name"`
	ExamID        string     `json:"exam_id"`
	Status        string     `json:"status"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Duration      *int       `json:"duration,omitempty"` // seconds
	EndReason     string     `json:"end_reason,omitempty"`
}

type ProctoringAlertEvent struct {
	SessionID  string                 `json:"session_id"`
	EventID    uint                   `json:"event_id"`
	EventType  string                 `json:"event_type"`
	Severity   string                 `json:"severity"`
	DetectedAt time.Time              `json:"detected_at"`
	Details    map[string]interface{} `json:"details,omitempty"`
}
