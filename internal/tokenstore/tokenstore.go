// Package tokenstore persists small string values, such as the auth token
// and the cached user record, between runs of the quiz client.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/eversols/autismquiz/internal/config"
	"github.com/eversols/autismquiz/internal/database"
	"github.com/eversols/autismquiz/internal/migrations"
)

// Well-known keys.
const (
	KeyAuthToken = "authToken"
	KeyUser      = "user"
)

var ErrNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Open builds the backend named by cfg.TokenStore. The returned closer
// releases whatever connection the backend holds.
func Open(ctx context.Context, cfg *config.Config) (Store, io.Closer, error) {
	switch cfg.TokenStore {
	case "memory":
		return NewMemory(), nopCloser{}, nil

	case "sqlite", "":
		db, err := database.Open(ctx, cfg.TokenDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening token database: %w", err)
		}
		if err := migrations.Run(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrating token database: %w", err)
		}
		return NewSQLite(db), db, nil

	case "redis":
		if cfg.RedisURL == "" {
			return nil, nil, errors.New("REDIS_URL is required for the redis token store")
		}
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return NewRedis(rdb, defaultRedisPrefix), rdb, nil
	}
	return nil, nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Memory keeps values for the lifetime of the process.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
