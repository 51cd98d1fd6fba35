package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/dicri/internal/db"
)

func TestTokenRevocation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	session, other := uuid.NewString(), uuid.NewString()

	revoked, err := IsTokenRevoked(ctx, database, session)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, database, session, time.Now().Add(time.Hour)))
	// Logging out twice is harmless.
	require.NoError(t, RevokeToken(ctx, database, session, time.Now().Add(time.Hour)))

	revoked, err = IsTokenRevoked(ctx, database, session)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = IsTokenRevoked(ctx, database, other)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeTokenPrunesExpired(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, RevokeToken(ctx, database, "expired", time.Now().Add(-time.Hour)))
	require.NoError(t, RevokeToken(ctx, database, "live", time.Now().Add(time.Hour)))

	revoked, err := IsTokenRevoked(ctx, database, "expired")
	require.NoError(t, err)
	assert.False(t, revoked, "expired entries are swept on the next revocation")
}
