package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shrimpsizemoose/gitaguru/internal/auth"
	"github.com/shrimpsizemoose/gitaguru/internal/blob"
	"github.com/shrimpsizemoose/gitaguru/internal/progress"
	"github.com/shrimpsizemoose/gitaguru/internal/store"
)

type Service struct {
	Config *Config
	Store  store.Store
	Blob   blob.Store
	Auth   auth.Provider

	tracker *progress.Tracker
	now     func() time.Time
}

// New wires a service from already opened backends.
func New(config *Config, st store.Store, bs blob.Store, ap auth.Provider) *Service {
	if ap == nil {
		ap = auth.Disabled{}
	}
	return &Service{
		Config:  config,
		Store:   st,
		Blob:    bs,
		Auth:    ap,
		tracker: progress.NewTracker(st),
		now:     time.Now,
	}
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	bs, err := NewBlobStore(config.Storage)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to init blob store: %w", err)
	}

	ap, err := NewAuthProvider(context.Background(), config)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return New(config, st, bs, ap), nil
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

// IsModerator checks the moderator token header. With no token configured
// nobody is a moderator.
func (s *Service) IsModerator(r *http.Request) bool {
	want := s.Config.Auth.ModeratorToken
	return want != "" && r.Header.Get(s.Config.Auth.ModeratorHeader) == want
}

// RequestUserID resolves who is calling: the bearer session when auth is
// enabled, the user id header otherwise.
func (s *Service) RequestUserID(r *http.Request) (string, error) {
	if !s.Config.Server.EnableAuth {
		id := strings.TrimSpace(r.Header.Get(s.Config.API.UserIDHeader))
		if id == "" {
			return "", auth.ErrSessionNotFound
		}
		return id, nil
	}

	authHeader := r.Header.Get(s.Config.Auth.TokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("invalid authorization header format: %w", auth.ErrSessionNotFound)
	}
	user, err := s.Authenticate(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
