package verification

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreCodeLifecycle(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	missing, err := store.GetCode(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	rec := CodeRecord{
		Code:      "654321",
		IssuedAt:  time.Now().UTC().Truncate(time.Second),
		ExpiresAt: time.Now().UTC().Add(10 * time.Minute).Truncate(time.Second),
	}
	require.NoError(t, store.SaveCode(ctx, "user@example.com", rec))

	got, err := store.GetCode(ctx, "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Code, got.Code)
	assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, store.DeleteCode(ctx, "user@example.com"))
	got, err = store.GetCode(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreSaveCodeResetsAttempts(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	rec := CodeRecord{Code: "111111", IssuedAt: time.Now(), ExpiresAt: time.Now().Add(10 * time.Minute)}
	require.NoError(t, store.SaveCode(ctx, "user@example.com", rec))

	for i := int64(1); i <= 3; i++ {
		n, err := store.IncrAttempts(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	// A fresh code starts counting from zero again.
	rec.Code = "222222"
	require.NoError(t, store.SaveCode(ctx, "user@example.com", rec))
	n, err := store.IncrAttempts(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRedisStoreExpiredCodeStillReadable(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	rec := CodeRecord{Code: "333333", IssuedAt: time.Now(), ExpiresAt: time.Now().Add(10 * time.Minute)}
	require.NoError(t, store.SaveCode(ctx, "user@example.com", rec))

	// Past the recorded expiry but inside the grace window the record is
	// still present, so callers can report expiry rather than absence.
	mr.FastForward(11 * time.Minute)
	got, err := store.GetCode(ctx, "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, time.Now().Before(got.ExpiresAt))

	// Once the grace window lapses the key is reaped.
	mr.FastForward(2 * time.Hour)
	got, err = store.GetCode(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreCooldown(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	rem, err := store.CooldownRemaining(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Zero(t, rem)

	require.NoError(t, store.SetCooldown(ctx, "user@example.com", time.Minute))
	rem, err = store.CooldownRemaining(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Greater(t, rem, time.Duration(0))

	mr.FastForward(61 * time.Second)
	rem, err = store.CooldownRemaining(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Zero(t, rem)
}

func TestRedisStoreFlowState(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	missing, err := store.GetFlowState(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	state := FlowState{Identifier: "user@example.com", Kind: KindPasswordReset, Stage: StageCodeSent}
	require.NoError(t, store.SaveFlowState(ctx, "tok-1", state, 15*time.Minute))

	got, err := store.GetFlowState(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, state, *got)

	require.NoError(t, store.DeleteFlowState(ctx, "tok-1"))
	got, err = store.GetFlowState(ctx, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.SaveFlowState(ctx, "tok-2", state, time.Minute))
	mr.FastForward(2 * time.Minute)
	got, err = store.GetFlowState(ctx, "tok-2")
	require.NoError(t, err)
	assert.Nil(t, got)
}
