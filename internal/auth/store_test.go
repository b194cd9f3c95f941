package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedisCodeStoreRoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCodeStore(client, 180*time.Second)
	ctx := context.Background()

	salt := []byte("0123456789abcdef")
	hash := HashCode("123456", salt)
	require.NoError(t, store.Save(ctx, "9161234567", salt, hash))

	assert.True(t, mr.Exists("otp:9161234567"))
	assert.Equal(t, 180*time.Second, mr.TTL("otp:9161234567"))

	gotSalt, gotHash, err := store.Get(ctx, "9161234567")
	require.NoError(t, err)
	assert.Equal(t, salt, gotSalt)
	assert.Equal(t, hash, gotHash)

	require.NoError(t, store.Delete(ctx, "9161234567"))
	_, _, err = store.Get(ctx, "9161234567")
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestRedisCodeStoreExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCodeStore(client, 180*time.Second)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "9161234567", []byte("salt"), []byte("hash")))
	mr.FastForward(181 * time.Second)

	_, _, err := store.Get(ctx, "9161234567")
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestRedisCodeStoreAttempts(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCodeStore(client, time.Minute)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := store.IncrAttempts(ctx, "9161234567")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, time.Minute, mr.TTL("otp:attempts:9161234567"))

	require.NoError(t, store.Save(ctx, "9161234567", []byte("salt"), []byte("hash")))
	got, err := store.IncrAttempts(ctx, "9161234567")
	require.NoError(t, err)
	assert.Equal(t, 4, got, "a new code keeps the counter")

	require.NoError(t, store.Delete(ctx, "9161234567"))
	assert.False(t, mr.Exists("otp:attempts:9161234567"))
}

func TestRedisCodeStoreAttemptsRestoresMissingTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCodeStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, mr.Set("otp:attempts:9161234567", "2"))
	assert.Zero(t, mr.TTL("otp:attempts:9161234567"))

	got, err := store.IncrAttempts(ctx, "9161234567")
	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, time.Minute, mr.TTL("otp:attempts:9161234567"))

	mr.FastForward(30 * time.Second)
	_, err = store.IncrAttempts(ctx, "9161234567")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mr.TTL("otp:attempts:9161234567"), "later attempts keep the window")

	mr.FastForward(31 * time.Second)
	got, err = store.IncrAttempts(ctx, "9161234567")
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}
