package api

import (
	"context"
	"net/http"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

func (c *Client) GetSettings(ctx context.Context) (autismquiz.Settings, error) {
	s := autismquiz.DefaultSettings()
	err := c.do(ctx, http.MethodGet, "user/settings", nil, &s)
	return s, err
}

// UpdateSettings replaces the full settings record.
func (c *Client) UpdateSettings(ctx context.Context, s autismquiz.Settings) error {
	return c.do(ctx, http.MethodPut, "user/settings", s, nil)
}

// UpdateProfile sets the display name and age. A nil age clears it.
func (c *Client) UpdateProfile(ctx context.Context, p autismquiz.Profile) error {
	return c.do(ctx, http.MethodPut, "user/profile", p, nil)
}
