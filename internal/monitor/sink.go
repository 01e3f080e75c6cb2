package monitor

import (
	"context"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/services"
)

// ServiceSink feeds loop anomalies straight into the event service, bound to
// one session.
type ServiceSink struct {
	events    services.EventService
	sessionID string
}

func NewServiceSink(events services.EventService, sessionID string) *ServiceSink {
	return &ServiceSink{
		events:    events,
		sessionID: sessionID,
	}
}

func (s *ServiceSink) Submit(ctx context.Context, event SinkEvent) error {
	req := &services.LogEventRequest{
		SessionID: s.sessionID,
		Type:      string(event.Type),
		Severity:  string(event.Severity),
		Source:    string(event.Source),
		Details:   event.Details,
	}
	_, err := s.events.LogOne(ctx, req, services.RequestOrigin{})
	return err
}
