package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examportal/backend/core"
	"github.com/examportal/backend/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService  *service.AuthService
	adminService *service.AdminService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, adminService *service.AdminService) *AuthHandlers {
	return &AuthHandlers{
		authService:  authService,
		adminService: adminService,
	}
}

// Logout revokes the bearer token the request was authenticated with.
func (h *AuthHandlers) Logout(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return
	}

	if err := h.authService.Revoke(c.Request.Context(), token); err != nil {
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to logout", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the caller's identity and, when one exists, the stored user.
func (h *AuthHandlers) Me(c *gin.Context) {
	identity, ok := IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return
	}

	resp := gin.H{
		"subject": identity.Subject,
		"role":    identity.Role,
	}

	user, err := h.adminService.FindUserByEmail(c.Request.Context(), identity.Subject)
	switch {
	case err == nil:
		resp["user"] = user
	case !errors.Is(err, core.ErrNotFound):
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to load user", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Health reports liveness.
func (h *AuthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
