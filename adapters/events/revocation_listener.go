package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/sirupsen/logrus"

	"github.com/examportal/backend/logging"
	"github.com/examportal/backend/ports"
)

const listenerHandlerName = "revocation_listener"

// DefaultRetry backs off between attempts to apply a remote revocation.
var DefaultRetry = middleware.Retry{
	MaxRetries:          5,
	InitialInterval:     200 * time.Millisecond,
	MaxInterval:         10 * time.Second,
	Multiplier:          2,
	RandomizationFactor: 0.2,
}

// RevocationListener applies revocations published by other instances to the
// local store, so a logout anywhere is honoured everywhere.
type RevocationListener struct {
	subscriber message.Subscriber
	store      ports.RevocationStore
	topic      string
	retry      middleware.Retry
	logger     watermill.LoggerAdapter
}

// ListenerOption configures a RevocationListener.
type ListenerOption func(*RevocationListener)

// WithRetry replaces DefaultRetry.
func WithRetry(retry middleware.Retry) ListenerOption {
	return func(l *RevocationListener) {
		l.retry = retry
	}
}

// NewRevocationListener creates a listener feeding store.
func NewRevocationListener(subscriber message.Subscriber, store ports.RevocationStore, opts ...ListenerOption) *RevocationListener {
	l := &RevocationListener{
		subscriber: subscriber,
		store:      store,
		topic:      RevocationTopic,
		retry:      DefaultRetry,
		logger:     logging.NewWatermillAdapter(logging.Logger),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.retry.Logger = l.logger
	return l
}

// Run consumes events until ctx is cancelled. A failing event is retried
// with backoff and dropped once the retries are spent.
func (l *RevocationListener) Run(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{}, l.logger)
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	// Outermost first: panics become errors, errors are retried, and what
	// still fails is dropped instead of redelivered.
	router.AddMiddleware(
		l.dropExhausted,
		l.retry.Middleware,
		middleware.Recoverer,
	)
	router.AddNoPublisherHandler(listenerHandlerName, l.topic, l.subscriber, l.handle)

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("revocation listener: %w", err)
	}
	return nil
}

func (l *RevocationListener) handle(msg *message.Message) error {
	var event RevocationEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil || event.Fingerprint == "" {
		// Malformed events can never succeed; drop them.
		logging.Logger.WithField("uuid", msg.UUID).Warn("Dropping malformed revocation event")
		return nil
	}

	if err := l.store.Revoke(msg.Context(), event.Fingerprint, event.ExpiresAt); err != nil {
		return fmt.Errorf("failed to apply remote revocation %s: %w", shortKey(event.Fingerprint), err)
	}
	return nil
}

func (l *RevocationListener) dropExhausted(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		produced, err := h(msg)
		if err != nil {
			logging.Logger.WithError(err).WithFields(logrus.Fields{
				"uuid":    msg.UUID,
				"retries": l.retry.MaxRetries,
			}).Error("Giving up on remote revocation")
			return nil, nil
		}
		return produced, nil
	}
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
