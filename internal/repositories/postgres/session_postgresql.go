package postgres

import (
	"context"
	"time"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/repositories"
	"gorm.io/gorm"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s SessionPostgreSQL) Create(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s SessionPostgreSQL) GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&session).Error; err != nil {
		return nil, err
	}

	return &session, nil
}

func (s SessionPostgreSQL) EndActive(ctx context.Context, sessionID string, end repositories.SessionEnd) (bool, error) {
	// Single conditional write: the status predicate makes the update atomic,
	// the second of two racing End calls matches zero rows.
	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("session_id = ? AND status = ?", sessionID, models.SessionActive).
		Updates(map[string]interface{}{
			"status":        end.Status,
			"end_time":      end.EndTime,
			"duration":      end.Duration,
			"last_activity": end.EndTime,
			"metadata":      end.Metadata,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (s SessionPostgreSQL) TouchActivity(ctx context.Context, sessionID string, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("session_id = ?", sessionID).
		Update("last_activity", at).Error
}
