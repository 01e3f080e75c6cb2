package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionActive     SessionStatus = "active"
	SessionCompleted  SessionStatus = "completed"
	SessionTerminated SessionStatus = "terminated"
	SessionError      SessionStatus = "error"
)

// DefaultExamID is stored when a session is started without an exam reference.
const DefaultExamID = "unknown"

// Session is one proctored exam sitting. SessionID is the external reference;
// the numeric primary key never leaves the store layer.
type Session struct {
	ID            uint          `json:"-" gorm:"primaryKey"`
	SessionID     string        `json:"sessionId" gorm:"size:36;uniqueIndex;not null"`
	CandidateName string        `json:"candidateName" gorm:"size:255;not null"`
	ExamID        string        `json:"examId" gorm:"size:255;default:unknown"`
	Status        SessionStatus `json:"status" gorm:"size:20;not null;default:active;index"`

	StartTime    time.Time  `json:"startTime" gorm:"not null"`
	EndTime      *time.Time `json:"endTime"`
	Duration     *int       `json:"duration"` // seconds, computed once when the session ends
	LastActivity time.Time  `json:"lastActivity"`

	Metadata datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Events []Event `json:"events,omitempty" gorm:"foreignKey:SessionID;references:SessionID"`
}

// IsTerminal reports whether the session can no longer transition. Status only
// moves forward: an ended session is never re-activated.
func (s *Session) IsTerminal() bool {
	return s.Status != SessionActive
}
