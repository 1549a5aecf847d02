// Package auth issues and checks learner credentials and sessions.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrDisabled           = errors.New("auth is disabled")
)

type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Provider interface {
	// SignUp registers email and returns the id issued for the new account.
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// Authenticate resolves a session token to the session it was issued as.
	Authenticate(ctx context.Context, token string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	Close() error
}

// Disabled is used when the server runs without auth. Identity then comes
// from a request header.
type Disabled struct{}

func (Disabled) SignUp(context.Context, string, string) (string, error) { return "", ErrDisabled }

func (Disabled) SignIn(context.Context, string, string) (*Session, error) { return nil, ErrDisabled }

func (Disabled) Authenticate(context.Context, string) (*Session, error) { return nil, ErrDisabled }

func (Disabled) SignOut(context.Context, string) error { return ErrDisabled }

func (Disabled) Close() error { return nil }
