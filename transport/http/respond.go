package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/examportal/backend/logging"
)

const (
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeForbidden          = "forbidden"
	ErrCodeInvalidToken       = "invalid_token"
	ErrCodeTokenRevoked       = "token_revoked"
	ErrCodeTokenStatusUnknown = "token_status_unknown"
	ErrCodeNotFound           = "not_found"
	ErrCodeInternal           = "internal_server_error"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError aborts the chain with a JSON error. devErr, when given, is
// logged but never sent to the client.
func respondError(c *gin.Context, status int, code, message string, devErr error) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})

	entry := logging.Logger.WithFields(logrus.Fields{
		"status": status,
		"code":   code,
		"path":   c.Request.URL.Path,
	})
	if devErr != nil {
		entry = entry.WithError(devErr)
	}
	if status >= 500 {
		entry.Error(message)
		return
	}
	entry.Info(message)
}
