// Package storage selects the persistence backend handed to the MTProto
// engine.
package storage

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/gotd/td/session"
	"github.com/redis/go-redis/v9"
)

// Backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultKey is the Redis key used when none is configured.
const DefaultKey = "xjx-tele:session"

// RedisStorage stores the engine session blob under a single Redis key.
type RedisStorage struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

var _ session.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates storage on top of client. Zero ttl keeps the
// session forever.
func NewRedisStorage(client redis.UniversalClient, key string, ttl time.Duration) *RedisStorage {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStorage{client: client, key: key, ttl: ttl}
}

// LoadSession returns session.ErrNotFound if nothing was stored yet.
func (s *RedisStorage) LoadSession(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get session")
	}
	return data, nil
}

func (s *RedisStorage) StoreSession(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "set session")
	}
	return nil
}

// Options select and configure a backend.
type Options struct {
	Backend  string
	FilePath string
	RedisURL string
	RedisKey string
	TTL      time.Duration
}

// Open returns the storage for opt.Backend and a function releasing its
// resources.
func Open(ctx context.Context, opt Options) (session.Storage, func() error, error) {
	noop := func() error { return nil }

	switch opt.Backend {
	case BackendFile, "":
		if opt.FilePath == "" {
			return nil, nil, errors.New("session file path is required")
		}
		return &session.FileStorage{Path: opt.FilePath}, noop, nil
	case BackendMemory:
		return new(session.StorageMemory), noop, nil
	case BackendRedis:
		if opt.RedisURL == "" {
			return nil, nil, errors.New("redis url is required")
		}
		redisOpt, err := redis.ParseURL(opt.RedisURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "parse redis url")
		}
		client := redis.NewClient(redisOpt)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, errors.Wrap(err, "ping redis")
		}
		return NewRedisStorage(client, opt.RedisKey, opt.TTL), client.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown session backend %q", opt.Backend)
	}
}
