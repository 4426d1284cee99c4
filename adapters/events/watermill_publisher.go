package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/examportal/backend/ports"
)

// RevocationTopic carries RevocationEvent payloads between instances.
const RevocationTopic = "examportal.revocations"

// StreamMaxlens caps the revocation stream at maxlen entries, for
// redisstream.PublisherConfig.Maxlens.
func StreamMaxlens(maxlen int64) map[string]int64 {
	return map[string]int64{RevocationTopic: maxlen}
}

// RevocationEvent represents a token revocation made on some instance
type RevocationEvent struct {
	Subject     string    `json:"subject,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     RevocationTopic,
	}
}

// PublishRevocation publishes a revocation event
func (p *WatermillPublisher) PublishRevocation(ctx context.Context, subject, key string, expiresAt time.Time) error {
	event := RevocationEvent{
		Subject:     subject,
		Fingerprint: key,
		ExpiresAt:   expiresAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NoopPublisher drops every event. Used when replication is disabled.
type NoopPublisher struct{}

// PublishRevocation discards the event.
func (NoopPublisher) PublishRevocation(context.Context, string, string, time.Time) error {
	return nil
}
