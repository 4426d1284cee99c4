package ports

import (
	"context"
	"time"
)

// RevocationStore tracks tokens that must be rejected before their natural
// expiry. Keys are token fingerprints, never raw tokens.
type RevocationStore interface {
	// Revoke records key as revoked until expiresAt. Revoking twice is a no-op.
	Revoke(ctx context.Context, key string, expiresAt time.Time) error
	// IsRevoked reports whether key has an active revocation entry.
	IsRevoked(ctx context.Context, key string) (bool, error)
	// Prune drops entries whose token expired at or before now and returns
	// how many were removed.
	Prune(ctx context.Context, now time.Time) (int, error)
}
