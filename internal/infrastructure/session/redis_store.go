package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

const redisOpTimeout = 3 * time.Second

// RedisStore keeps the session under "<origin>:wallet" and "<origin>:connected".
type RedisStore struct {
	conn   *redis.Client
	origin string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, addr, password string, db int, origin string) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis session backend needs an address")
	}
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := conn.Ping(pingCtx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return newRedisStore(conn, origin), nil
}

func newRedisStore(conn *redis.Client, origin string) *RedisStore {
	return &RedisStore{conn: conn, origin: origin}
}

func (s *RedisStore) key(name string) string {
	return s.origin + ":" + name
}

func (s *RedisStore) Save(key entity.ProviderKey) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.conn.Set(ctx, s.key(port.SessionKeyWallet), string(key), 0).Err(); err != nil {
		return fmt.Errorf("save provider key: %w", err)
	}
	return nil
}

func (s *RedisStore) Load() (entity.ProviderKey, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	v, err := s.conn.Get(ctx, s.key(port.SessionKeyWallet)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load provider key: %w", err)
	}
	return entity.ProviderKey(v), true, nil
}

func (s *RedisStore) MarkConnected() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.conn.Set(ctx, s.key(port.SessionKeyConnected), markerValue, 0).Err(); err != nil {
		return fmt.Errorf("mark connected: %w", err)
	}
	return nil
}

func (s *RedisStore) IsMarkedConnected() (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	n, err := s.conn.Exists(ctx, s.key(port.SessionKeyConnected)).Result()
	if err != nil {
		return false, fmt.Errorf("check connected marker: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) ClearConnected() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.conn.Del(ctx, s.key(port.SessionKeyConnected)).Err(); err != nil {
		return fmt.Errorf("clear connected marker: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.conn.Del(ctx, s.key(port.SessionKeyWallet), s.key(port.SessionKeyConnected)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
