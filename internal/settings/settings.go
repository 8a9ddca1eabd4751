// Package settings keeps a local copy of the user's account settings and
// pushes changes to the server optimistically, rolling back on failure.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

var (
	ErrInvalidVisibility = errors.New("profile visibility must be Public, Friends Only or Private")
	ErrUnknownKey        = errors.New("unknown setting")
)

// Client is the remote side of the settings record.
type Client interface {
	GetSettings(ctx context.Context) (autismquiz.Settings, error)
	UpdateSettings(ctx context.Context, s autismquiz.Settings) error
}

type Manager struct {
	client Client
	logger *slog.Logger

	mu      sync.Mutex
	current autismquiz.Settings
}

func NewManager(client Client, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		client:  client,
		logger:  logger,
		current: autismquiz.DefaultSettings(),
	}
}

// Load replaces the local copy with the server's. On failure the local copy
// is left as it was.
func (m *Manager) Load(ctx context.Context) (autismquiz.Settings, error) {
	s, err := m.client.GetSettings(ctx)
	if err != nil {
		m.logger.Error("fetching settings failed", "error", err)
		return m.Current(), fmt.Errorf("fetching settings: %w", err)
	}
	if s.ProfileVisibility == "" {
		s.ProfileVisibility = autismquiz.VisibilityPublic
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Current() autismquiz.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Update applies mutate to the local copy at once, then sends the full
// record to the server. If the server rejects it the previous copy is
// restored, unless another update has replaced it in the meantime.
func (m *Manager) Update(ctx context.Context, mutate func(*autismquiz.Settings)) (autismquiz.Settings, error) {
	m.mu.Lock()
	prev := m.current
	next := prev
	mutate(&next)
	if !next.ProfileVisibility.Valid() {
		m.mu.Unlock()
		return prev, fmt.Errorf("%w: got %q", ErrInvalidVisibility, next.ProfileVisibility)
	}
	m.current = next
	m.mu.Unlock()

	if err := m.client.UpdateSettings(ctx, next); err != nil {
		m.mu.Lock()
		if m.current == next {
			m.current = prev
		}
		m.mu.Unlock()
		m.logger.Warn("syncing settings failed, rolled back", "error", err)
		return prev, fmt.Errorf("syncing settings: %w", err)
	}
	return next, nil
}

// Set updates a single setting by name. Names match the JSON fields; the
// short forms notifications, visibility and data-usage are accepted too.
func (m *Manager) Set(ctx context.Context, key, value string) (autismquiz.Settings, error) {
	apply, err := setter(key, value)
	if err != nil {
		return m.Current(), err
	}
	return m.Update(ctx, apply)
}

func setter(key, value string) (func(*autismquiz.Settings), error) {
	switch strings.ToLower(key) {
	case "notifications", "notificationsenabled":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("notifications: %w", err)
		}
		return func(s *autismquiz.Settings) { s.NotificationsEnabled = on }, nil

	case "datausage", "data-usage":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("data usage: %w", err)
		}
		return func(s *autismquiz.Settings) { s.DataUsage = on }, nil

	case "visibility", "profilevisibility":
		v := autismquiz.Visibility(value)
		if !v.Valid() {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidVisibility, value)
		}
		return func(s *autismquiz.Settings) { s.ProfileVisibility = v }, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownKey, key)
}
