package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type EventFilters struct {
	Types      []models.EventType     `json:"types"`
	Severities []models.EventSeverity `json:"severities"`
	DateFrom   *time.Time             `json:"date_from"` // inclusive
	DateTo     *time.Time             `json:"date_to"`   // inclusive
	Limit      int                    `json:"limit"`
	Offset     int                    `json:"offset"`
	SortBy     string                 `json:"sort_by"`    // "timestamp", "severity", "created_at"
	SortOrder  string                 `json:"sort_order"` // "asc", "desc"
}

// SessionEnd carries the one-shot terminal update applied to an active session.
type SessionEnd struct {
	Status   models.SessionStatus
	EndTime  time.Time
	Duration int // seconds
	Metadata datatypes.JSONMap
}

// ===== REPOSITORY INTERFACES =====

// SessionRepository persists proctoring sessions
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error)

	// EndActive applies the terminal update as a single conditional write
	// matching only an active session. It reports whether a row matched, so
	// concurrent End calls cannot both succeed.
	EndActive(ctx context.Context, sessionID string, end SessionEnd) (bool, error)

	// TouchActivity refreshes the session's last-activity marker
	TouchActivity(ctx context.Context, sessionID string, at time.Time) error
}

// EventRepository persists proctoring events
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	CreateBatch(ctx context.Context, events []*models.Event) error

	// ListBySession returns one page of events plus the total count over the
	// same filter, counted independently of the page.
	ListBySession(ctx context.Context, sessionID string, filters EventFilters) ([]*models.Event, int64, error)
}

// IsNotFoundError reports whether err is the store's record-not-found condition
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
