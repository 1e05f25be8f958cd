package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"edustack/lms-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Constants for context keys
const (
	ContextAdminIDKey    = "adminID"
	ContextAdminEmailKey = "adminEmail"
	ContextRequestIDKey  = "requestID"
	ContextNmUserIDKey   = "nmUserID"
	ContextCourseCodeKey = "courseCode"
)

// SessionCookieName is the HTTP-only cookie set at launch redemption.
const SessionCookieName = "nm_session"

// RequestIDMiddleware tags every request with an id for audit correlation.
// An inbound X-Request-Id is trusted when present.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, requestID)
		c.Header("X-Request-Id", requestID)
		c.Next()
	}
}

// AuthMiddleware creates a Gin middleware validating admin console JWTs.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims := &service.AdminClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}
		if !token.Valid || claims.AdminID == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		c.Set(ContextAdminIDKey, claims.AdminID)
		c.Set(ContextAdminEmailKey, claims.Email)
		c.Next()
	}
}

// PartnerAuthMiddleware guards the partner endpoints with the shared bearer
// secret agreed with the NM platform.
func PartnerAuthMiddleware(sharedSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sharedSecret == "" {
			abortWithError(c, http.StatusServiceUnavailable, "Partner integration is not configured")
			return
		}

		token, ok := bearerToken(c)
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(sharedSecret)) != 1 {
			abortWithError(c, http.StatusUnauthorized, "Invalid partner credentials")
			return
		}
		c.Next()
	}
}

// SessionAuthMiddleware validates the nm_session cookie minted at launch and
// exposes the student/course pair to the player endpoints.
func SessionAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || cookie == "" {
			abortWithError(c, http.StatusUnauthorized, "Missing session")
			return
		}

		claims := &service.SessionClaims{}
		token, err := jwt.ParseWithClaims(cookie, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid || claims.NmUserID == "" || claims.CourseCode == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid or expired session")
			return
		}

		c.Set(ContextNmUserIDKey, claims.NmUserID)
		c.Set(ContextCourseCodeKey, claims.CourseCode)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

func requestID(c *gin.Context) string {
	return c.GetString(ContextRequestIDKey)
}

func adminID(c *gin.Context) string {
	return c.GetString(ContextAdminIDKey)
}
