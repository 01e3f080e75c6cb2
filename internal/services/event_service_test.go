package services

import (
	"context"
	"testing"
	"time"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/events"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/repositories"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventFixture struct {
	service   EventService
	sessions  *memSessionRepo
	events    *memEventRepo
	publisher *events.MockEventPublisher
	sessionID string
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()
	logger := testLogger()
	sessions := newMemSessionRepo()
	eventsRepo := newMemEventRepo()
	publisher := events.NewMockEventPublisher(logger)
	validator := utils.NewValidator()

	service := NewEventService(sessions, eventsRepo, nil, publisher, logger, validator)

	sessionService := NewSessionService(sessions, eventsRepo, nil, publisher, logger, validator)
	session, err := sessionService.Start(context.Background(), &StartSessionRequest{CandidateName: "Alice"})
	require.NoError(t, err)
	publisher.ClearEvents()

	return &eventFixture{
		service:   service,
		sessions:  sessions,
		events:    eventsRepo,
		publisher: publisher,
		sessionID: session.SessionID,
	}
}

func (f *eventFixture) logType(t *testing.T, eventType string) *models.Event {
	t.Helper()
	event, err := f.service.LogOne(context.Background(), &LogEventRequest{
		SessionID: f.sessionID,
		Type:      eventType,
	}, RequestOrigin{})
	require.NoError(t, err)
	return event
}

func TestEventService_LogOne_Defaults(t *testing.T) {
	f := newEventFixture(t)

	event, err := f.service.LogOne(context.Background(), &LogEventRequest{
		SessionID: f.sessionID,
		Type:      string(models.EventTabSwitch),
	}, RequestOrigin{IP: "10.0.0.1", UserAgent: "go-test"})
	require.NoError(t, err)

	assert.NotZero(t, event.ID)
	assert.Equal(t, models.EventTabSwitch, event.Type)
	assert.Equal(t, models.SeverityInfo, event.Severity)
	assert.Equal(t, models.SourceSystem, event.Source)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, "10.0.0.1", event.Metadata[metadataIPKey])
	assert.Equal(t, "go-test", event.Metadata[metadataUserAgent])
}

func TestEventService_LogOne_ClientTimestampKept(t *testing.T) {
	f := newEventFixture(t)

	provided := time.Now().Add(-5 * time.Minute).UTC().Truncate(time.Second)
	event, err := f.service.LogOne(context.Background(), &LogEventRequest{
		SessionID: f.sessionID,
		Type:      string(models.EventNoFace),
		Timestamp: &provided,
		Severity:  string(models.SeverityWarning),
		Source:    string(models.SourceFaceDetection),
	}, RequestOrigin{})
	require.NoError(t, err)

	assert.True(t, event.Timestamp.Equal(provided))
	assert.Equal(t, models.SeverityWarning, event.Severity)
	assert.Equal(t, models.SourceFaceDetection, event.Source)
}

func TestEventService_LogOne_InvalidType(t *testing.T) {
	f := newEventFixture(t)

	_, err := f.service.LogOne(context.Background(), &LogEventRequest{
		SessionID: f.sessionID,
		Type:      "not_a_real_type",
	}, RequestOrigin{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestEventService_LogOne_UnknownSession(t *testing.T) {
	f := newEventFixture(t)

	_, err := f.service.LogOne(context.Background(), &LogEventRequest{
		SessionID: "no-such-session",
		Type:      string(models.EventTabSwitch),
	}, RequestOrigin{})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEventService_LogOne_AcceptedAfterSessionEnd(t *testing.T) {
	f := newEventFixture(t)

	matched, err := f.sessions.EndActive(context.Background(), f.sessionID, repositories.SessionEnd{
		Status:  models.SessionCompleted,
		EndTime: time.Now(),
	})
	require.NoError(t, err)
	require.True(t, matched)

	// A straggling detection tick after End still lands in the log
	event := f.logType(t, string(models.EventNoFace))
	assert.Equal(t, models.EventNoFace, event.Type)
}

func TestEventService_LogOne_TouchFailureIsSwallowed(t *testing.T) {
	f := newEventFixture(t)
	f.sessions.failTouch = true

	event := f.logType(t, string(models.EventTabSwitch))
	assert.NotZero(t, event.ID)
}

func TestEventService_LogOne_PublishesAlerts(t *testing.T) {
	f := newEventFixture(t)

	f.logType(t, string(models.EventTabSwitch))
	assert.Empty(t, f.publisher.GetPublishedEvents(), "routine events are not alerts")

	f.logType(t, string(models.EventSuspiciousObject))
	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventProctoringAlert, published[0].Type)
}

func TestEventService_LogBatch(t *testing.T) {
	f := newEventFixture(t)

	logged, err := f.service.LogBatch(context.Background(), &LogBatchRequest{
		SessionID: f.sessionID,
		Events: []BatchEventInput{
			{Type: string(models.EventNoFace)},
			{Type: string(models.EventTabSwitch)},
			{Type: string(models.EventMultipleFaces), Details: map[string]interface{}{"count": 2}},
		},
	}, RequestOrigin{})
	require.NoError(t, err)
	require.Len(t, logged, 3)

	for _, event := range logged {
		assert.NotZero(t, event.ID)
		assert.Equal(t, true, event.Metadata[batchMetadataFlag])
	}
	assert.Equal(t, float64(2), toFloat(logged[2].Details["count"]))
}

func TestEventService_LogBatch_Empty(t *testing.T) {
	f := newEventFixture(t)

	_, err := f.service.LogBatch(context.Background(), &LogBatchRequest{
		SessionID: f.sessionID,
		Events:    []BatchEventInput{},
	}, RequestOrigin{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestEventService_LogBatch_InvalidEntry(t *testing.T) {
	f := newEventFixture(t)

	_, err := f.service.LogBatch(context.Background(), &LogBatchRequest{
		SessionID: f.sessionID,
		Events: []BatchEventInput{
			{Type: string(models.EventNoFace)},
			{Type: "bogus"},
		},
	}, RequestOrigin{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestEventService_QueryBySession_Pagination(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f.logType(t, string(models.EventTabSwitch))
	}

	page, err := f.service.QueryBySession(ctx, f.sessionID, repositories.EventFilters{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Events, 2)
	assert.Equal(t, int64(6), page.Total) // 5 tab switches + session_start
	assert.True(t, page.HasMore)

	page, err = f.service.QueryBySession(ctx, f.sessionID, repositories.EventFilters{Limit: 10, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page.Events, 2)
	assert.False(t, page.HasMore)
}

func TestEventService_QueryBySession_Filters(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	f.logType(t, string(models.EventNoFace))
	f.logType(t, string(models.EventTabSwitch))
	f.logType(t, string(models.EventNoFace))

	page, err := f.service.QueryBySession(ctx, f.sessionID, repositories.EventFilters{
		Types: []models.EventType{models.EventNoFace},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	for _, event := range page.Events {
		assert.Equal(t, models.EventNoFace, event.Type)
	}
}

func TestEventService_QueryBySession_UnknownSession(t *testing.T) {
	f := newEventFixture(t)

	// Querying an unknown session is not an error, just an empty page
	page, err := f.service.QueryBySession(context.Background(), "missing", repositories.EventFilters{})
	require.NoError(t, err)
	assert.Empty(t, page.Events)
	assert.Equal(t, int64(0), page.Total)
	assert.False(t, page.HasMore)
}

// toFloat normalizes the int/float64 split JSON round-trips introduce
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	default:
		return -1
	}
}
