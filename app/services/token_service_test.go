package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, accessTTL time.Duration) TokenService {
	t.Helper()
	svc, err := NewTokenService(
		accessTTL, 24*time.Hour,
		"meidesaqua-test", "meidesaqua-admin",
		false, "", "", "test-secret-key-of-at-least-32-chars",
	)
	require.NoError(t, err)
	return svc
}

func TestTokenPairRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	access, refresh, err := svc.GenerateAdminTokens(7)
	require.NoError(t, err)
	require.NotEqual(t, access, refresh)

	claims, err := svc.ValidateAdminToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AdminID)
	assert.Equal(t, "access", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))

	refreshClaims, err := svc.ValidateAdminToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	access, refresh, err := svc.GenerateAdminTokens(7)
	require.NoError(t, err)

	_, _, err = svc.RefreshAdminToken(access)
	require.Error(t, err)

	newAccess, newRefresh, err := svc.RefreshAdminToken(refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)
}

func TestExpiredTokenIsReported(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)

	access, _, err := svc.GenerateAdminTokens(7)
	require.NoError(t, err)

	_, err = svc.ValidateAdminToken(access)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestForeignTokenIsRejected(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	other, err := NewTokenService(
		time.Hour, 24*time.Hour,
		"someone-else", "another-panel",
		false, "", "", "a-completely-different-32-char-secret",
	)
	require.NoError(t, err)

	foreign, _, err := other.GenerateAdminTokens(7)
	require.NoError(t, err)

	_, err = svc.ValidateAdminToken(foreign)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.ValidateAdminToken("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestChallengeStoreConsumesOnFirstTake(t *testing.T) {
	store := newChallengeStore(time.Minute)
	store.put("c1", 87)

	angle, ok := store.take("c1")
	require.True(t, ok)
	assert.Equal(t, 87, angle)

	// A second attempt with the same challenge must fail
	_, ok = store.take("c1")
	assert.False(t, ok)

	_, ok = store.take("never-issued")
	assert.False(t, ok)
}

func TestChallengeStoreExpiry(t *testing.T) {
	store := newChallengeStore(time.Minute)
	store.put("stale", 12)
	entry := store.pending["stale"]
	entry.deadline = time.Now().Add(-time.Second)
	store.pending["stale"] = entry

	_, ok := store.take("stale")
	assert.False(t, ok)
}
