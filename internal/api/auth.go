package api

import (
	"context"
	"errors"
	"net/http"

	"taskdeck/internal/apperr"
	"taskdeck/internal/model"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type RegisterRequest struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// Login calls POST /api/login. A rejected login is reported as an
// AuthError with the server message, or "login failed" when there is none.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, "login", http.MethodPost, "/api/login", "", req, &out)
	if err != nil {
		return LoginResponse{}, asAuthError(err, "login failed")
	}
	if out.Token == "" {
		return LoginResponse{}, &apperr.AuthError{Status: http.StatusOK, Msg: "login failed"}
	}
	return out, nil
}

// Register calls POST /api/register.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	err := c.do(ctx, "register", http.MethodPost, "/api/register", "", req, nil)
	return asAuthError(err, "registration failed")
}

func asAuthError(err error, fallback string) error {
	var remote *apperr.RemoteError
	if !errors.As(err, &remote) {
		return err
	}
	msg := remote.Msg
	if msg == "" {
		msg = fallback
	}
	return &apperr.AuthError{Status: remote.Status, Msg: msg}
}
