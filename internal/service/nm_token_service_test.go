package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/nm"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAccessTokenGrantsOnceAndCaches(t *testing.T) {
	repo := &memClientTokenRepo{}
	partner := &stubPartner{grantResp: &nm.TokenResponse{AccessToken: "fresh", ExpiresIn: 3600}}
	provider := NewTokenProvider(repo, partner, zap.NewNop())

	token, err := provider.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh", token)
	require.Equal(t, 1, partner.grants)

	token, err = provider.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh", token)
	require.Equal(t, 1, partner.grants)
}

func TestAccessTokenRefreshesExpired(t *testing.T) {
	repo := &memClientTokenRepo{tokens: []*domain.NmClientToken{{
		AccessToken: "stale",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}}}
	partner := &stubPartner{grantResp: &nm.TokenResponse{AccessToken: "fresh", ExpiresIn: 3600}}
	provider := NewTokenProvider(repo, partner, zap.NewNop())

	token, err := provider.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh", token)
	require.Equal(t, 1, partner.grants)
	require.Len(t, repo.tokens, 2)
}

func TestAccessTokenSurvivesCacheWriteFailure(t *testing.T) {
	repo := &memClientTokenRepo{insertErr: fmt.Errorf("write denied")}
	partner := &stubPartner{grantResp: &nm.TokenResponse{AccessToken: "fresh", ExpiresIn: 3600}}
	provider := NewTokenProvider(repo, partner, zap.NewNop())

	token, err := provider.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh", token)
}

func TestAccessTokenGrantFailurePropagates(t *testing.T) {
	repo := &memClientTokenRepo{}
	partner := &stubPartner{grantErr: &nm.UpstreamError{StatusCode: 401, Body: "bad client"}}
	provider := NewTokenProvider(repo, partner, zap.NewNop())

	_, err := provider.AccessToken(context.Background())
	var upstream *nm.UpstreamError
	require.ErrorAs(t, err, &upstream)
}

func TestAccessTokenConcurrentCallersShareOneGrant(t *testing.T) {
	repo := &memClientTokenRepo{}
	slowPartner := &slowGrantPartner{
		stubPartner: stubPartner{grantResp: &nm.TokenResponse{AccessToken: "fresh", ExpiresIn: 3600}},
		delay:       20 * time.Millisecond,
	}
	provider := NewTokenProvider(repo, slowPartner, zap.NewNop())

	const callers = 8
	tokens := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = provider.AccessToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "fresh", tokens[i])
	}
	require.Equal(t, 1, slowPartner.grants)
}

// slowGrantPartner stalls the grant long enough for callers to pile up on the
// singleflight gate.
type slowGrantPartner struct {
	stubPartner
	delay time.Duration
}

func (p *slowGrantPartner) ClientCredentialsGrant(ctx context.Context) (*nm.TokenResponse, error) {
	time.Sleep(p.delay)
	return p.stubPartner.ClientCredentialsGrant(ctx)
}
