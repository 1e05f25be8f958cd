package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"edustack/lms-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func protectedRouter(middleware gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", middleware, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"adminId": adminID(c)})
	})
	return router
}

func signAdminToken(t *testing.T, secret string, expiresIn time.Duration) string {
	t.Helper()
	claims := &service.AdminClaims{
		AdminID: "abc123",
		Email:   "root@lms.example",
		Role:    "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	router := protectedRouter(AuthMiddleware(testSecret))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signAdminToken(t, testSecret, time.Hour))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "abc123")
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	router := protectedRouter(AuthMiddleware(testSecret))

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"wrong secret":   "Bearer " + signAdminToken(t, "other-secret", time.Hour),
		"expired":        "Bearer " + signAdminToken(t, testSecret, -time.Hour),
		"garbage":        "Bearer not.a.jwt",
	}
	for name, header := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}

func TestPartnerAuthMiddleware(t *testing.T) {
	router := protectedRouter(PartnerAuthMiddleware("shared-secret"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer shared-secret")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer wrong-secret")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPartnerAuthMiddlewareUnconfigured(t *testing.T) {
	router := protectedRouter(PartnerAuthMiddleware(""))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer anything")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSessionAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/player", SessionAuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"nmUserId":   c.GetString(ContextNmUserIDKey),
			"courseCode": c.GetString(ContextCourseCodeKey),
		})
	})

	claims := &service.SessionClaims{
		NmUserID:   "nm-user-1",
		CourseCode: "GO101",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	cookie, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/player", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "nm-user-1")

	// No cookie at all.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/player", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, requestID(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "req-42")
	router.ServeHTTP(w, req)
	require.Equal(t, "req-42", w.Body.String())
	require.Equal(t, "req-42", w.Header().Get("X-Request-Id"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NotEmpty(t, w.Body.String())
}
