package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/repositories"
	"gorm.io/gorm"
)

// In-memory repository fakes shared by the service tests.

type memSessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]*models.Session
	nextID    uint
	failTouch bool
	touched   int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *memSessionRepo) Create(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.SessionID]; exists {
		return errors.New("duplicate session_id")
	}
	r.nextID++
	session.ID = r.nextID
	session.CreatedAt = time.Now()
	copied := *session
	r.sessions[session.SessionID] = &copied
	return nil
}

func (r *memSessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *memSessionRepo) EndActive(ctx context.Context, sessionID string, end repositories.SessionEnd) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok || session.Status != models.SessionActive {
		return false, nil
	}
	endTime := end.EndTime
	duration := end.Duration
	session.Status = end.Status
	session.EndTime = &endTime
	session.Duration = &duration
	session.LastActivity = endTime
	session.Metadata = end.Metadata
	return true, nil
}

func (r *memSessionRepo) TouchActivity(ctx context.Context, sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTouch {
		return errors.New("touch failed")
	}
	session, ok := r.sessions[sessionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	session.LastActivity = at
	r.touched++
	return nil
}

type memEventRepo struct {
	mu         sync.Mutex
	events     []*models.Event
	nextID     uint
	failCreate bool
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{}
}

func (r *memEventRepo) Create(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("insert failed")
	}
	r.nextID++
	event.ID = r.nextID
	event.CreatedAt = time.Now()
	copied := *event
	r.events = append(r.events, &copied)
	return nil
}

func (r *memEventRepo) CreateBatch(ctx context.Context, events []*models.Event) error {
	r.mu.Lock()
	if r.failCreate {
		r.mu.Unlock()
		return errors.New("bulk insert failed")
	}
	r.mu.Unlock()
	for _, event := range events {
		if err := r.Create(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (r *memEventRepo) ListBySession(ctx context.Context, sessionID string, filters repositories.EventFilters) ([]*models.Event, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Event
	for _, event := range r.events {
		if event.SessionID != sessionID {
			continue
		}
		if !matchesFilters(event, filters) {
			continue
		}
		copied := *event
		matched = append(matched, &copied)
	}

	asc := filters.SortOrder == "asc"
	sort.SliceStable(matched, func(i, j int) bool {
		if asc {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		}
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	total := int64(len(matched))

	if filters.Offset > 0 {
		if filters.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filters.Offset:]
		}
	}
	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}

	return matched, total, nil
}

func matchesFilters(event *models.Event, filters repositories.EventFilters) bool {
	if len(filters.Types) > 0 {
		found := false
		for _, t := range filters.Types {
			if event.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filters.Severities) > 0 {
		found := false
		for _, s := range filters.Severities {
			if event.Severity == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filters.DateFrom != nil && event.Timestamp.Before(*filters.DateFrom) {
		return false
	}
	if filters.DateTo != nil && event.Timestamp.After(*filters.DateTo) {
		return false
	}
	return true
}
