package models

import (
	"time"

	"gorm.io/datatypes"
)

type EventType string

const (
	// Session lifecycle
	EventSessionStart  EventType = "session_start"
	EventSessionEnd    EventType = "session_end"
	EventSessionPause  EventType = "session_pause"
	EventSessionResume EventType = "session_resume"

	// Face detection
	EventNoFace        EventType = "no_face"
	EventMultipleFaces EventType = "multiple_faces"
	EventFaceDetected  EventType = "face_detected"
	EventFaceLost      EventType = "face_lost"

	// Object detection
	EventSuspiciousObject EventType = "suspicious_object"
	EventForbiddenObject  EventType = "forbidden_object"

	// User actions
	EventTabSwitch    EventType = "tab_switch"
	EventWindowResize EventType = "window_resize"
	EventCopyPaste    EventType = "copy_paste"
	EventPrintScreen  EventType = "print_screen"

	// System
	EventError   EventType = "error"
	EventWarning EventType = "warning"
	EventInfo    EventType = "info"
	EventCustom  EventType = "custom"
)

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityError    EventSeverity = "error"
	SeverityCritical EventSeverity = "critical"
)

type EventSource string

const (
	SourceSystem          EventSource = "system"
	SourceFaceDetection   EventSource = "face_detection"
	SourceObjectDetection EventSource = "object_detection"
	SourceUserAction      EventSource = "user_action"
	SourceAPI             EventSource = "api"
)

// Event is a single immutable proctoring record owned by exactly one session.
type Event struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	SessionID string        `json:"sessionId" gorm:"size:36;not null;index"`
	Type      EventType     `json:"type" gorm:"size:40;not null;index"`
	Timestamp time.Time     `json:"timestamp" gorm:"not null;index"`
	Severity  EventSeverity `json:"severity" gorm:"size:20;not null;default:info"`
	Source    EventSource   `json:"source" gorm:"size:30;not null;default:system"`

	// Type-specific payload, e.g. {"count": 2} for multiple_faces or
	// {"object": "cell phone", "confidence": 0.91} for suspicious_object.
	Details datatypes.JSONMap `json:"details" gorm:"type:jsonb"`

	// Open bag, augmented server-side with the request origin.
	Metadata datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"createdAt"`
}

var eventTypes = map[EventType]struct{}{
	EventSessionStart: {}, EventSessionEnd: {}, EventSessionPause: {}, EventSessionResume: {},
	EventNoFace: {}, EventMultipleFaces: {}, EventFaceDetected: {}, EventFaceLost: {},
	EventSuspiciousObject: {}, EventForbiddenObject: {},
	EventTabSwitch: {}, EventWindowResize: {}, EventCopyPaste: {}, EventPrintScreen: {},
	EventError: {}, EventWarning: {}, EventInfo: {}, EventCustom: {},
}

// IsValidEventType reports whether t belongs to the closed event enumeration.
// Unknown types are rejected at the service boundary.
func IsValidEventType(t EventType) bool {
	_, ok := eventTypes[t]
	return ok
}

func IsValidEventSeverity(s EventSeverity) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	}
	return false
}

func IsValidEventSource(s EventSource) bool {
	switch s {
	case SourceSystem, SourceFaceDetection, SourceObjectDetection, SourceUserAction, SourceAPI:
		return true
	}
	return false
}
