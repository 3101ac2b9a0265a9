package bkash

import (
	"context"
	"sync"
	"time"

	"bonik-be/internal/logger"

	"go.uber.org/zap"
)

// refreshSkew is subtracted from the grant TTL so a token is never handed
// out moments before the gateway expires it.
const refreshSkew = 30 * time.Second

// TokenCache hands out a cached bearer token, refreshing it from the
// gateway when the TTL runs out. A cache hit performs no network calls.
type TokenCache struct {
	api      API
	provider CredentialProvider

	mu     sync.Mutex
	token  string
	expiry time.Time

	now func() time.Time
}

func NewTokenCache(api API, provider CredentialProvider) *TokenCache {
	return &TokenCache{
		api:      api,
		provider: provider,
		now:      time.Now,
	}
}

// Token returns the cached token or grants a fresh one. Grant denials are
// logged and surfaced as *TokenError; there is no fallback.
func (tc *TokenCache) Token(ctx context.Context) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.token != "" && tc.now().Before(tc.expiry) {
		return tc.token, nil
	}

	creds, err := tc.provider.Resolve(ctx)
	if err != nil {
		return "", err
	}

	res, err := tc.api.GrantToken(ctx, creds)
	if err != nil {
		logger.FromCtx(ctx).Error("bkash token grant failed", zap.Error(err))
		return "", &TokenError{Err: err}
	}

	ttl := time.Duration(res.ExpiresIn) * time.Second
	if ttl > refreshSkew {
		ttl -= refreshSkew
	}

	tc.token = res.IDToken
	tc.expiry = tc.now().Add(ttl)

	logger.FromCtx(ctx).Info("bkash token refreshed",
		zap.Int("expires_in", res.ExpiresIn),
	)

	return tc.token, nil
}

// Invalidate drops the cached token so the next call grants a new one.
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.token = ""
	tc.expiry = time.Time{}
}
