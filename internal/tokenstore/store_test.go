package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsecart/internal/config"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), mr.Addr(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestStoresRoundTrip(t *testing.T) {
	redisStore, _ := newRedisStore(t)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(t.TempDir(), ".pulsecart", tokenFileName)),
		"redis":  redisStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := store.Get(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, store.Set(ctx, "tok1"))
			got, err = store.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, "tok1", got)

			require.NoError(t, store.Clear(ctx))
			got, err = store.Get(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, store.Clear(ctx))
			assert.Error(t, store.Set(ctx, ""))
		})
	}
}

func TestFileStorePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", tokenFileName)
	store := NewFileStore(path)

	require.NoError(t, store.Set(context.Background(), "tok1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRedisStoreExpiresWithToken(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	token := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Set(ctx, token))

	ttl := mr.TTL(redisTokenKey)
	assert.Greater(t, ttl, 50*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	mr.FastForward(2 * time.Hour)
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisStoreOpaqueTokenHasNoTTL(t *testing.T) {
	store, mr := newRedisStore(t)

	require.NoError(t, store.Set(context.Background(), "opaque"))
	assert.Equal(t, time.Duration(0), mr.TTL(redisTokenKey))
}

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	got, ok := ExpiresAt(signedToken(t, exp))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = ExpiresAt("opaque-token")
	assert.False(t, ok)

	assert.True(t, Expired(signedToken(t, time.Now().Add(-time.Minute)), time.Now()))
	assert.False(t, Expired(signedToken(t, exp), time.Now()))
	assert.False(t, Expired("opaque-token", time.Now()))
}

func TestOpenSelectsStrategy(t *testing.T) {
	ctx := context.Background()
	log := zerolog.Nop()

	t.Run("redis when reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store, kind := Open(ctx, &config.Config{Redis: config.RedisConfig{Addr: mr.Addr()}}, log)
		assert.Equal(t, KindRedis, kind)
		assert.IsType(t, &RedisStore{}, store)
	})

	t.Run("file when home is writable", func(t *testing.T) {
		home := t.TempDir()
		store, kind := Open(ctx, &config.Config{Home: home}, log)
		assert.Equal(t, KindFile, kind)
		require.IsType(t, &FileStore{}, store)
		assert.Equal(t, filepath.Join(home, ".pulsecart", tokenFileName), store.(*FileStore).Path())
	})

	t.Run("memory fallback", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

		store, kind := Open(ctx, &config.Config{Home: blocker}, log)
		assert.Equal(t, KindMemory, kind)
		assert.IsType(t, &MemoryStore{}, store)
	})
}
