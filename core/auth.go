package core

import (
	"context"
	"time"
)

// RoleAdmin is the authority required by the admin API.
const RoleAdmin = "ROLE_ADMIN"

// Claims is the decoded, verified content of an access token
type Claims struct {
	ID        string    // Unique token identifier (jti)
	Subject   string    // User identity, an email address
	Role      string    // Single authorization role, propagated verbatim
	IssuedAt  time.Time // When the token was minted
	ExpiresAt time.Time // Token is unusable from this instant on
}

// Identity is the authenticated caller of a single request. It is derived
// from a validated token and never outlives the request that produced it.
type Identity struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
}

// HasRole reports whether the identity carries one of the given roles.
func (i *Identity) HasRole(roles ...string) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity established for the request, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
