package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shrimpsizemoose/gitaguru/internal/models"
)

func (s *BaseStore) CreateUser(ctx context.Context, name, email string) (*models.User, error) {
	return s.insertUser(ctx, uuid.NewString(), name, email)
}

func (s *BaseStore) insertUser(ctx context.Context, id, name, email string) (*models.User, error) {
	user := &models.User{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: s.now(),
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("invalid user: %w", err)
	}

	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO users (id, name, email, created_at)
		VALUES (:id, :name, :email, :created_at)
	`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// EnsureUser inserts a user row keyed by an externally issued id unless one
// exists. When the email already belongs to another row, that row is
// returned: emails never change owner.
func (s *BaseStore) EnsureUser(ctx context.Context, id, name, email string) (*models.User, error) {
	user := &models.User{ID: id, Name: name, Email: email, CreatedAt: s.now()}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("invalid user: %w", err)
	}

	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO users (id, name, email, created_at)
		VALUES (:id, :name, :email, :created_at)
		ON CONFLICT DO NOTHING
	`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user %s: %w", id, err)
	}

	existing, err := s.GetUser(ctx, id)
	if err != nil || existing != nil {
		return existing, err
	}
	return s.GetUserByEmail(ctx, email)
}

func (s *BaseStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	found, err := s.getOne(ctx, &user, `
		SELECT id, name, email, created_at FROM users WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

func (s *BaseStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	found, err := s.getOne(ctx, &user, `
		SELECT id, name, email, created_at FROM users WHERE email = ?
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

// GetOrCreateUser returns the user owning email, creating it when absent.
// The second return value reports whether a row was inserted. Two callers
// racing on the same new email rely on the unique index to fail one of them.
func (s *BaseStore) GetOrCreateUser(ctx context.Context, email, name string) (*models.User, bool, error) {
	existing, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	user, err := s.CreateUser(ctx, name, email)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
