package ports

import (
	"context"
	"time"
)

// EventPublisher notifies other instances about revocations
type EventPublisher interface {
	PublishRevocation(ctx context.Context, subject, key string, expiresAt time.Time) error
}
