package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_WithoutRedisFailsOpen(t *testing.T) {
	store := NewTokenStore(nil)
	ctx := context.Background()

	require.NoError(t, store.RevokeAccessToken(ctx, "jti-1", time.Minute))

	revoked, err := store.IsAccessTokenRevoked(ctx, "jti-1")
	assert.NoError(t, err)
	assert.False(t, revoked)
}
