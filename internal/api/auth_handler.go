package api

import (
	"errors"
	"fmt"
	"net/http"

	"edustack/lms-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
	audit       service.AuditService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, audit service.AuditService) *AuthHandler {
	return &AuthHandler{authService: authService, audit: audit}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string        `json:"token"`
	Admin AdminResponse `json:"admin"`
}

// AdminResponse excludes the password hash.
type AdminResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login authenticates an admin and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, admin, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.audit.Record(c.Request.Context(), service.AuditEntry{
			ActorType:    "admin",
			ActorID:      req.Email,
			Action:       "auth.login",
			RequestID:    requestID(c),
			StatusCode:   http.StatusUnauthorized,
			Success:      false,
			ErrorMessage: err.Error(),
		})
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during login")
		}
		return
	}

	h.audit.Record(c.Request.Context(), service.AuditEntry{
		ActorType:  "admin",
		ActorID:    admin.ID.Hex(),
		Action:     "auth.login",
		RequestID:  requestID(c),
		StatusCode: http.StatusOK,
		Success:    true,
	})
	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		Admin: AdminResponse{ID: admin.ID.Hex(), Email: admin.Email, Role: admin.Role},
	})
}
