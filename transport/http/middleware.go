package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/examportal/backend/core"
	"github.com/examportal/backend/logging"
	"github.com/examportal/backend/service"
)

// ContextKeyIdentity holds the *core.Identity of an authenticated request.
const ContextKeyIdentity = "identity"

const bearerPrefix = "Bearer "

// Messages sent on gate rejections.
const (
	MessageTokenRevoked       = "Token is invalid or expired. Please log in again."
	MessageTokenStatusUnknown = "Token status could not be verified. Please try again later."
	MessageInvalidToken       = "Invalid token"
)

// Policy selects how the gate treats failures other than revocation. The
// zero value fails closed on store errors and downgrades invalid tokens to
// anonymous access.
type Policy struct {
	// FailOpen lets requests through anonymously when the revocation
	// store cannot be queried.
	FailOpen bool
	// RejectInvalid answers 401 for tokens that fail validation instead of
	// treating the caller as anonymous.
	RejectInvalid bool
}

// Gate authenticates every request carrying a bearer token. Only revoked
// tokens (and, by policy, store failures or invalid tokens) stop the chain;
// everything else continues, with or without an identity.
func Gate(authService *service.AuthService, policy Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		identity, err := authService.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(ContextKeyIdentity, identity)
			c.Request = c.Request.WithContext(core.WithIdentity(c.Request.Context(), identity))

		case errors.Is(err, core.ErrTokenRevoked):
			logging.Logger.WithFields(logrus.Fields{
				"fingerprint": service.Fingerprint(token)[:12],
				"path":        c.Request.URL.Path,
			}).Warn("Rejected revoked token")
			respondError(c, http.StatusUnauthorized, ErrCodeTokenRevoked, MessageTokenRevoked, nil)
			return

		case errors.Is(err, core.ErrRevocationUnavailable):
			logging.Logger.WithError(err).WithField("fail_open", policy.FailOpen).Warn("Revocation store unavailable")
			if !policy.FailOpen {
				respondError(c, http.StatusUnauthorized, ErrCodeTokenStatusUnknown, MessageTokenStatusUnknown, err)
				return
			}

		default:
			if policy.RejectInvalid {
				respondError(c, http.StatusUnauthorized, ErrCodeInvalidToken, MessageInvalidToken, err)
				return
			}
		}

		c.Next()
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFrom(c); !ok {
			respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
			return
		}
		c.Next()
	}
}

// RequireRole rejects anonymous callers with 401 and callers holding none of
// roles with 403.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
			return
		}
		if !identity.HasRole(roles...) {
			respondError(c, http.StatusForbidden, ErrCodeForbidden, "Insufficient permissions", nil)
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity the gate established for this request.
func IdentityFrom(c *gin.Context) (*core.Identity, bool) {
	v, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return nil, false
	}
	identity, ok := v.(*core.Identity)
	return identity, ok && identity != nil
}

// RequestLogger writes one access-log line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}
		if identity, ok := IdentityFrom(c); ok {
			fields["subject"] = identity.Subject
		}
		logging.Logger.WithFields(fields).Debug("request")
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Any other scheme counts as no credential.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}
