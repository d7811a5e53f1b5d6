package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client), mr
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newTestStore(t)

	_, state, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, StateNew, state)

	ok, err := store.Reserve(ctx, "k1", "fp1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Reserve(ctx, "k1", "fp1", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	pending, state, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, StatePending, state)
	require.Equal(t, "fp1", pending.Fingerprint)

	want := Record{Fingerprint: "fp1", Status: 201, ContentType: "application/json", Body: []byte(`{"data":1}`)}
	require.NoError(t, store.Save(ctx, "k1", want, time.Minute))

	got, state, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, StateDone, state)
	require.Equal(t, want, got)

	mr.FastForward(2 * time.Minute)

	_, state, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, StateNew, state)
}

func TestRedisStoreRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestStore(t)

	ok, err := store.Reserve(ctx, "k2", "fp2", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Release(ctx, "k2"))

	ok, err = store.Reserve(ctx, "k2", "fp2", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisStoreUnavailable(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	mr.Close()

	_, _, err := store.Get(context.Background(), "k3")
	require.Error(t, err)
}
