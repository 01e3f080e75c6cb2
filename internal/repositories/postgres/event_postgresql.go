package postgres

import (
	"context"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/repositories"
	"gorm.io/gorm"
)

type EventPostgreSQL struct {
	db *gorm.DB
}

func NewEventPostgreSQL(db *gorm.DB) repositories.EventRepository {
	return &EventPostgreSQL{db: db}
}

func (e EventPostgreSQL) Create(ctx context.Context, event *models.Event) error {
	return e.db.WithContext(ctx).Create(event).Error
}

func (e EventPostgreSQL) CreateBatch(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}
	return e.db.WithContext(ctx).Create(&events).Error
}

func (e EventPostgreSQL) ListBySession(ctx context.Context, sessionID string, filters repositories.EventFilters) ([]*models.Event, int64, error) {
	var events []*models.Event
	var total int64

	// apply filter first
	query := e.db.WithContext(ctx).Model(&models.Event{}).Where("session_id = ?", sessionID)
	query = e.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = e.applyPaginationAndSort(query, filters)

	if err := query.Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (e EventPostgreSQL) applyFilters(query *gorm.DB, filters repositories.EventFilters) *gorm.DB {
	if len(filters.Types) > 0 {
		query = query.Where("type IN ?", filters.Types)
	}
	if len(filters.Severities) > 0 {
		query = query.Where("severity IN ?", filters.Severities)
	}
	if filters.DateFrom != nil {
		query = query.Where("timestamp >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("timestamp <= ?", *filters.DateTo)
	}

	return query
}

func (e EventPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.EventFilters) *gorm.DB {
	// column whitelist keeps user-supplied sort keys out of the SQL
	column := "timestamp"
	switch filters.SortBy {
	case "", "timestamp":
	case "severity":
		column = "severity"
	case "created_at":
		column = "created_at"
	}

	order := "DESC"
	if filters.SortOrder == "asc" {
		order = "ASC"
	}
	query = query.Order(column + " " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	return query
}
