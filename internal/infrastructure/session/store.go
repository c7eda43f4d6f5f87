package session

import (
	"context"
	"fmt"
	"strings"

	"wallet_connector/internal/app/port"
)

// Backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

const (
	DefaultOrigin = "wallet_connector"
	DefaultPath   = "data/session.json"

	markerValue = "true"
)

// Config selects and configures a session backend.
type Config struct {
	Backend string
	// Origin namespaces the keys, like a browser origin does for local storage.
	Origin string
	Path   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Store is a session store that owns a resource.
type Store interface {
	port.SessionStore
	Close() error
}

// New opens the backend named in cfg.
func New(ctx context.Context, cfg Config) (Store, error) {
	origin := strings.TrimSpace(cfg.Origin)
	if origin == "" {
		origin = DefaultOrigin
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFile:
		path := cfg.Path
		if path == "" {
			path = DefaultPath
		}
		return NewFileStore(path, origin), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, origin)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
