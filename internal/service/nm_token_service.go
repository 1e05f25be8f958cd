package service

import (
	"context"
	"errors"
	"time"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/nm"
	"edustack/lms-backend/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TokenSource yields a currently valid partner access token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// tokenProvider caches the partner client-credential token. The cache is the
// most recent row of the token repository; expired tokens trigger one grant,
// deduplicated across concurrent callers by singleflight so a burst of
// requests at expiry performs a single refresh.
type tokenProvider struct {
	tokenRepo repository.NmClientTokenRepository
	partner   nm.API
	group     singleflight.Group
	logger    *zap.Logger
}

// NewTokenProvider creates a TokenSource backed by the given repository and
// partner API.
func NewTokenProvider(tokenRepo repository.NmClientTokenRepository, partner nm.API, logger *zap.Logger) TokenSource {
	return &tokenProvider{
		tokenRepo: tokenRepo,
		partner:   partner,
		logger:    logger,
	}
}

// AccessToken returns the cached token while unexpired, refreshing it via a
// client-credentials grant otherwise.
func (p *tokenProvider) AccessToken(ctx context.Context) (string, error) {
	cached, err := p.tokenRepo.Latest(ctx)
	if err == nil && !cached.Expired(time.Now()) {
		return cached.AccessToken, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	token, err, _ := p.group.Do("nm-client-token", func() (interface{}, error) {
		return p.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (p *tokenProvider) refresh(ctx context.Context) (string, error) {
	granted, err := p.partner.ClientCredentialsGrant(ctx)
	if err != nil {
		return "", err
	}

	record := &domain.NmClientToken{
		AccessToken:  granted.AccessToken,
		RefreshToken: granted.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(granted.ExpiresIn) * time.Second),
	}
	if err := p.tokenRepo.Insert(ctx, record); err != nil {
		// The grant itself succeeded; callers can still use the token even
		// if caching it failed.
		p.logger.Warn("failed to cache partner token", zap.Error(err))
	}
	return granted.AccessToken, nil
}
