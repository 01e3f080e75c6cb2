package config

import (
	"log/slog"
	"strings"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/events"
)

// EventConfig holds configuration for alert publishing
type EventConfig struct {
	Enabled      bool
	Publisher    string // kafka or mock
	KafkaBrokers string
	AlertTopic   string
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// CreateEventPublisher creates an alert publisher based on configuration
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("Alert publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	switch c.Publisher {
	case "kafka":
		logger.Info("Creating Kafka alert publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.AlertTopic)

		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			TopicName:    c.AlertTopic,
			Logger:       logger,
		})
	case "mock":
		logger.Info("Using mock alert publisher")
		return events.NewMockEventPublisher(logger), nil
	default:
		logger.Warn("Unknown alert publisher type, falling back to mock", "publisher", c.Publisher)
		return events.NewMockEventPublisher(logger), nil
	}
}
