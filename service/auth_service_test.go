package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examportal/backend/adapters/events"
	"github.com/examportal/backend/adapters/store"
	"github.com/examportal/backend/adapters/tokenizer"
	"github.com/examportal/backend/core"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	failed bool
}

func (p *recordingPublisher) PublishRevocation(ctx context.Context, subject, key string, expiresAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed {
		return errors.New("broker down")
	}
	p.keys = append(p.keys, key)
	return nil
}

type failingStore struct{}

func (failingStore) Revoke(context.Context, string, time.Time) error { return errors.New("connection refused") }
func (failingStore) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}
func (failingStore) Prune(context.Context, time.Time) (int, error) { return 0, errors.New("connection refused") }

func newTestAuthService(t *testing.T) (*AuthService, *store.MemoryStore, *recordingPublisher) {
	t.Helper()
	s := store.NewMemoryStore()
	pub := &recordingPublisher{}
	return NewAuthService(tokenizer.NewJWTTokenizer(testSecret), s, pub, time.Hour), s, pub
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.Issue("alice@example.com", core.RoleAdmin)
	require.NoError(t, err)

	identity, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, &core.Identity{Subject: "alice@example.com", Role: "ROLE_ADMIN"}, identity)
}

func TestAuthenticateRevoked(t *testing.T) {
	svc, s, pub := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.Issue("alice@example.com", core.RoleAdmin)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))
	require.NoError(t, svc.Revoke(ctx, token))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{Fingerprint(token), Fingerprint(token)}, pub.keys)

	// Other tokens of the same subject are unaffected.
	other, err := svc.Issue("alice@example.com", core.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, other)
	assert.NoError(t, err)
}

func TestAuthenticateInvalid(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	foreign, err := NewAuthService(tokenizer.NewJWTTokenizer([]byte("a-completely-different-secret!!!")), store.NewMemoryStore(), events.NoopPublisher{}, time.Hour).
		Issue("alice@example.com", core.RoleAdmin)
	require.NoError(t, err)

	for _, token := range []string{"garbage-string", "", "a.b.c", foreign} {
		_, err := svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, core.ErrInvalidToken, "token %q", token)
	}
}

func TestAuthenticateChecksRevocationFirst(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	// A malformed token that was explicitly revoked is reported as revoked.
	require.NoError(t, svc.Revoke(ctx, "garbage-string"))

	_, err := svc.Authenticate(ctx, "garbage-string")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestAuthenticateStoreUnavailable(t *testing.T) {
	svc := NewAuthService(tokenizer.NewJWTTokenizer(testSecret), failingStore{}, events.NoopPublisher{}, time.Hour)

	token, err := svc.Issue("alice@example.com", core.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrRevocationUnavailable)

	assert.Error(t, svc.Revoke(context.Background(), token))
}

func TestRevokeSurvivesPublishFailure(t *testing.T) {
	svc, _, pub := newTestAuthService(t)
	pub.failed = true
	ctx := context.Background()

	token, err := svc.Issue("alice@example.com", core.RoleAdmin)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestRevokeUsesTokenExpiry(t *testing.T) {
	svc, s, _ := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.Issue("alice@example.com", core.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, token))

	// Still within the token lifetime: entry kept.
	removed, err := s.Prune(ctx, time.Now().Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	removed, err = s.Prune(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestConcurrentRevokeVisibility(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := svc.Issue("alice@example.com", "ROLE_USER")
			if !assert.NoError(t, err) {
				return
			}
			_, err = svc.Authenticate(ctx, token)
			assert.NoError(t, err)
			assert.NoError(t, svc.Revoke(ctx, token))
			_, err = svc.Authenticate(ctx, token)
			assert.ErrorIs(t, err, core.ErrTokenRevoked)
		}()
	}
	wg.Wait()
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("token-a")
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint("token-a"))
	assert.NotEqual(t, a, Fingerprint("token-b"))
}

func TestNewAuthServiceDefaults(t *testing.T) {
	svc := NewAuthService(tokenizer.NewJWTTokenizer(testSecret), store.NewMemoryStore(), events.NoopPublisher{}, 0)
	assert.Equal(t, DefaultAccessTTL, svc.AccessTTL())
}

func TestRevokeWithReplicationDisabled(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewAuthService(tokenizer.NewJWTTokenizer(testSecret), s, events.NoopPublisher{}, time.Hour)
	ctx := context.Background()

	token, err := svc.Issue("alice@example.com", core.RoleAdmin)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
	assert.Equal(t, 1, s.Len())
}
