package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/examportal/backend/core"
	"github.com/examportal/backend/logging"
	"github.com/examportal/backend/ports"
)

// DefaultAccessTTL is the lifetime of issued access tokens.
const DefaultAccessTTL = 10 * time.Hour

// AuthService decides, per request, who the caller is. It also owns the
// only write path into the revocation store.
type AuthService struct {
	tokenizer ports.Tokenizer
	store     ports.RevocationStore
	eventPub  ports.EventPublisher

	accessTTL time.Duration
	now       func() time.Time
}

// NewAuthService creates a new authentication service. eventPub must not be
// nil; pass events.NoopPublisher when replication is off.
func NewAuthService(
	tokenizer ports.Tokenizer,
	store ports.RevocationStore,
	eventPub ports.EventPublisher,
	accessTTL time.Duration,
) *AuthService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	return &AuthService{
		tokenizer: tokenizer,
		store:     store,
		eventPub:  eventPub,
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// Authenticate runs the gate for a bearer token:
//
//	revocation check -> subject extraction -> validation -> role extraction
//
// It returns the identity on success, core.ErrTokenRevoked for revoked
// tokens, core.ErrRevocationUnavailable when the store cannot answer, and
// core.ErrInvalidToken for anything that fails validation.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*core.Identity, error) {
	key := Fingerprint(token)

	revoked, err := s.store.IsRevoked(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrRevocationUnavailable, err)
	}
	if revoked {
		return nil, core.ErrTokenRevoked
	}

	subject, ok := s.tokenizer.ExtractSubject(token)
	if !ok {
		return nil, core.ErrInvalidToken
	}

	if !s.tokenizer.Validate(token, subject) {
		return nil, core.ErrInvalidToken
	}

	role, err := s.tokenizer.ExtractRole(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	return &core.Identity{Subject: subject, Role: role}, nil
}

// Revoke invalidates token until its natural expiry. Tokens without a
// readable expiry are retained for one access-token lifetime.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	key := Fingerprint(token)

	expiresAt, ok := s.tokenizer.ExpiresAt(token)
	if !ok {
		expiresAt = s.now().Add(s.accessTTL)
	}

	if err := s.store.Revoke(ctx, key, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	subject, _ := s.tokenizer.ExtractSubject(token)

	// The token is already revoked locally; a lost event only delays
	// other instances until the token expires.
	if err := s.eventPub.PublishRevocation(ctx, subject, key, expiresAt); err != nil {
		logging.Logger.WithError(err).WithFields(logrus.Fields{
			"subject":     subject,
			"fingerprint": key[:12],
		}).Warn("Failed to publish revocation event")
	}

	return nil
}

// Issue mints an access token for subject. Credential checking happens
// before this call and is not the service's concern.
func (s *AuthService) Issue(subject, role string) (string, error) {
	token, err := s.tokenizer.Issue(subject, role, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// AccessTTL is the lifetime of tokens minted by Issue.
func (s *AuthService) AccessTTL() time.Duration {
	return s.accessTTL
}
