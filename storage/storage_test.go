package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gotd/td/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	s := NewRedisStorage(client, "", time.Hour)

	_, err := s.LoadSession(ctx)
	require.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, s.StoreSession(ctx, []byte(`{"Version":1}`)))
	data, err := s.LoadSession(ctx)
	require.NoError(t, err)
	require.Equal(t, `{"Version":1}`, string(data))

	require.True(t, mr.Exists(DefaultKey))
	require.Equal(t, time.Hour, mr.TTL(DefaultKey))
}

func TestRedisStorageUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisStorage(client, "key", 0).LoadSession(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, session.ErrNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		s, closeFn, err := Open(ctx, Options{Backend: BackendFile, FilePath: path})
		require.NoError(t, err)
		require.NoError(t, closeFn())
		require.Equal(t, &session.FileStorage{Path: path}, s)
	})
	t.Run("FileWithoutPath", func(t *testing.T) {
		_, _, err := Open(ctx, Options{Backend: BackendFile})
		require.Error(t, err)
	})
	t.Run("Memory", func(t *testing.T) {
		s, _, err := Open(ctx, Options{Backend: BackendMemory})
		require.NoError(t, err)
		require.IsType(t, &session.StorageMemory{}, s)
	})
	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, closeFn, err := Open(ctx, Options{
			Backend:  BackendRedis,
			RedisURL: "redis://" + mr.Addr(),
			RedisKey: "custom",
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = closeFn() })

		require.NoError(t, s.StoreSession(ctx, []byte("blob")))
		got, err := mr.Get("custom")
		require.NoError(t, err)
		require.Equal(t, "blob", got)
	})
	t.Run("Unknown", func(t *testing.T) {
		_, _, err := Open(ctx, Options{Backend: "etcd"})
		require.ErrorContains(t, err, `unknown session backend "etcd"`)
	})
}
