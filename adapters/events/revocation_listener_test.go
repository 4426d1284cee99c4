package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examportal/backend/adapters/store"
)

func TestRevocationReplicates(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubSub.Close()

	remote := store.NewMemoryStore()
	listener := NewRevocationListener(pubSub, remote)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	publisher := NewWatermillPublisher(pubSub)
	require.NoError(t, publisher.PublishRevocation(ctx, "alice@example.com", "fp-1", time.Now().Add(time.Hour)))

	assert.Eventually(t, func() bool {
		revoked, err := remote.IsRevoked(ctx, "fp-1")
		return err == nil && revoked
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop after cancel")
	}
}

func TestRevocationListenerDropsMalformedEvents(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubSub.Close()

	local := store.NewMemoryStore()
	listener := NewRevocationListener(pubSub, local)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = listener.Run(ctx) }()

	require.NoError(t, pubSub.Publish(RevocationTopic, message.NewMessage(watermill.NewUUID(), []byte("not json"))))
	require.NoError(t, NewWatermillPublisher(pubSub).PublishRevocation(ctx, "", "fp-2", time.Now().Add(time.Hour)))

	assert.Eventually(t, func() bool {
		revoked, _ := local.IsRevoked(ctx, "fp-2")
		return revoked
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, local.Len())
}

// unavailableStore fails every write and counts the attempts.
type unavailableStore struct {
	attempts atomic.Int64
}

func (s *unavailableStore) Revoke(context.Context, string, time.Time) error {
	s.attempts.Add(1)
	return errors.New("connection refused")
}

func (s *unavailableStore) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func (s *unavailableStore) Prune(context.Context, time.Time) (int, error) {
	return 0, errors.New("connection refused")
}

func TestRevocationListenerBoundsRetries(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubSub.Close()

	failing := &unavailableStore{}
	listener := NewRevocationListener(pubSub, failing, WithRetry(middleware.Retry{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = listener.Run(ctx) }()

	require.NoError(t, NewWatermillPublisher(pubSub).PublishRevocation(ctx, "alice@example.com", "fp-3", time.Now().Add(time.Hour)))

	assert.Eventually(t, func() bool {
		return failing.attempts.Load() == 3
	}, time.Second, 5*time.Millisecond)

	// The event is dropped after the last retry, not redelivered.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int64(3), failing.attempts.Load())
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.PublishRevocation(context.Background(), "a", "b", time.Now()))
}

func TestStreamMaxlens(t *testing.T) {
	assert.Equal(t, map[string]int64{RevocationTopic: 5000}, StreamMaxlens(5000))
}
