package service

import (
	"context"
	"errors"
	"time"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// AuthService authenticates admin console operators. There is no
// registration endpoint; the seed admin is created at startup.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, admin *domain.AdminUser, err error)
	EnsureSeedAdmin(ctx context.Context, email, password string) error
	GetJWTSecret() string
}

// authService implements the AuthService interface.
type authService struct {
	adminRepo     repository.AdminUserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	logger        *zap.Logger
}

// NewAuthService creates a new instance of authService.
func NewAuthService(adminRepo repository.AdminUserRepository, jwtSecret string, jwtExpiration time.Duration, logger *zap.Logger) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 24 * time.Hour
	}
	return &authService{
		adminRepo:     adminRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		logger:        logger,
	}
}

// Login verifies credentials and returns a signed admin JWT.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.AdminUser, error) {
	if email == "" || password == "" {
		return "", nil, errors.New("email and password cannot be empty")
	}

	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	now := time.Now().UTC()
	if err := s.adminRepo.SetLastLogin(ctx, admin.ID, now); err != nil {
		// Login still succeeds; the timestamp is informational.
		s.logger.Warn("failed to record admin login time", zap.String("email", email), zap.Error(err))
	}
	admin.LastLoginAt = &now

	token, err := s.generateJWT(admin)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	admin.PasswordHash = ""
	return token, admin, nil
}

// EnsureSeedAdmin creates the configured seed account when it does not exist.
// Called once at startup; a no-op when email or password is unset.
func (s *authService) EnsureSeedAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := s.adminRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.adminRepo.Create(ctx, &domain.AdminUser{
		Email:        email,
		PasswordHash: string(hash),
		Role:         "admin",
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// Another instance seeded it first.
		return nil
	}
	if err == nil {
		s.logger.Info("seed admin created", zap.String("email", email))
	}
	return err
}

// AdminClaims is the JWT payload for console operators.
type AdminClaims struct {
	AdminID string `json:"id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(admin *domain.AdminUser) (string, error) {
	expirationTime := time.Now().Add(s.jwtExpiration)
	claims := &AdminClaims{
		AdminID: admin.ID.Hex(),
		Email:   admin.Email,
		Role:    admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "lms-backend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication.
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
