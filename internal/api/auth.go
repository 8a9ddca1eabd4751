package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/eversols/autismquiz/internal/autismquiz"
	"github.com/eversols/autismquiz/internal/tokenstore"
)

var ErrNotLoggedIn = errors.New("not logged in")

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string          `json:"token"`
	User  autismquiz.User `json:"user"`
}

// Login authenticates and stores the token and user for later requests.
func (c *Client) Login(ctx context.Context, email, password string) (autismquiz.User, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return autismquiz.User{}, err
	}
	if resp.Token == "" {
		return autismquiz.User{}, errors.New("login response has no token")
	}

	user, err := json.Marshal(resp.User)
	if err != nil {
		return autismquiz.User{}, fmt.Errorf("encoding user: %w", err)
	}
	if err := c.tokens.Set(ctx, tokenstore.KeyAuthToken, resp.Token); err != nil {
		return autismquiz.User{}, fmt.Errorf("storing auth token: %w", err)
	}
	if err := c.tokens.Set(ctx, tokenstore.KeyUser, string(user)); err != nil {
		return autismquiz.User{}, fmt.Errorf("storing user: %w", err)
	}
	return resp.User, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, name, email, password string) (autismquiz.User, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "auth/register", RegisterRequest{Name: name, Email: email, Password: password}, &resp)
	return resp.User, err
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.tokens.Delete(ctx, tokenstore.KeyAuthToken); err != nil {
		return fmt.Errorf("deleting auth token: %w", err)
	}
	if err := c.tokens.Delete(ctx, tokenstore.KeyUser); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// CurrentUser returns the user stored by the last Login.
func (c *Client) CurrentUser(ctx context.Context) (autismquiz.User, error) {
	raw, err := c.tokens.Get(ctx, tokenstore.KeyUser)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return autismquiz.User{}, ErrNotLoggedIn
	}
	if err != nil {
		return autismquiz.User{}, fmt.Errorf("reading user: %w", err)
	}
	var u autismquiz.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return autismquiz.User{}, fmt.Errorf("decoding stored user: %w", err)
	}
	return u, nil
}
