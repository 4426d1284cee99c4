package ports

import (
	"time"

	"github.com/examportal/backend/core"
)

// Tokenizer encodes identities into signed tokens and verifies them
type Tokenizer interface {
	// Issue mints a token for subject carrying role, valid for ttl.
	Issue(subject, role string, ttl time.Duration) (string, error)

	// Unverified reads, no signature check
	ExtractSubject(token string) (string, bool)
	ExtractRole(token string) (string, error)
	ExpiresAt(token string) (time.Time, bool)

	// Validate fails closed: signature, expiry and subject must all match.
	Validate(token, expectedSubject string) bool
	// Verify is Validate without the subject binding, returning the claims.
	Verify(token string) (*core.Claims, error)
}
