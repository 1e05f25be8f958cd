package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthFixture(t *testing.T) (AuthService, *memAdminRepo) {
	t.Helper()
	repo := newMemAdminRepo()
	svc := NewAuthService(repo, "test-secret", 24*time.Hour, zap.NewNop())
	return svc, repo
}

func TestEnsureSeedAdminCreatesOnce(t *testing.T) {
	svc, repo := newAuthFixture(t)

	require.NoError(t, svc.EnsureSeedAdmin(context.Background(), "root@lms.example", "s3cret-pass"))
	require.NoError(t, svc.EnsureSeedAdmin(context.Background(), "root@lms.example", "different-pass"))
	require.Len(t, repo.rows, 1)

	// The original password keeps working after the second call.
	_, _, err := svc.Login(context.Background(), "root@lms.example", "s3cret-pass")
	require.NoError(t, err)
}

func TestEnsureSeedAdminNoopWhenUnconfigured(t *testing.T) {
	svc, repo := newAuthFixture(t)
	require.NoError(t, svc.EnsureSeedAdmin(context.Background(), "", ""))
	require.Empty(t, repo.rows)
}

func TestLoginIssuesValidJWT(t *testing.T) {
	svc, _ := newAuthFixture(t)
	require.NoError(t, svc.EnsureSeedAdmin(context.Background(), "root@lms.example", "s3cret-pass"))

	token, admin, err := svc.Login(context.Background(), "root@lms.example", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, "admin", admin.Role)
	require.Empty(t, admin.PasswordHash)
	require.NotNil(t, admin.LastLoginAt)

	claims := &AdminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, admin.ID.Hex(), claims.AdminID)
	require.Equal(t, "root@lms.example", claims.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)
	require.NoError(t, svc.EnsureSeedAdmin(context.Background(), "root@lms.example", "s3cret-pass"))

	_, _, err := svc.Login(context.Background(), "root@lms.example", "wrong")
	require.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(context.Background(), "ghost@lms.example", "s3cret-pass")
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}
