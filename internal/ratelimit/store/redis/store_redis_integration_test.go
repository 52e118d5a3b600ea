//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aegis/pkg/testutil/containers"
)

func TestRedisStoreIncrement(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	defer rc.Terminate(t)

	store := New(rc.Client)
	ctx := context.Background()

	const limit = 3
	for i := 1; i <= limit; i++ {
		result, err := store.Increment(ctx, "itest:key", limit, time.Minute)
		require.NoError(t, err)
		require.True(t, result.Allowed)
		require.Equal(t, i, result.Count)
	}

	result, err := store.Increment(ctx, "itest:key", limit, time.Minute)
	require.NoError(t, err)
	require.False(t, result.Allowed)
	require.Equal(t, 0, result.Remaining)
}

func TestRedisStoreReset(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	defer rc.Terminate(t)

	store := New(rc.Client)
	ctx := context.Background()

	_, err := store.Increment(ctx, "itest:reset", 3, time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Reset(ctx, "itest:reset"))

	result, err := store.Increment(ctx, "itest:reset", 3, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
}

func TestRedisStoreWindowExpiry(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	defer rc.Terminate(t)

	store := New(rc.Client)
	ctx := context.Background()

	_, err := store.Increment(ctx, "itest:expiry", 1, 200*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(300 * time.Millisecond)

	result, err := store.Increment(ctx, "itest:expiry", 1, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, result.Allowed)
	require.Equal(t, 1, result.Count)
}
