package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/auth"
	"github.com/shrimpsizemoose/gitaguru/internal/models"
)

const minPasswordLength = 6

var validate = validator.New()

// normalizeEmail matches the auth provider, so one address is one user
// whatever its case.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkIdentity(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", "must not be empty")
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return invalid("email", "%q is not a valid email address", email)
	}
	return nil
}

// IdentifyUser returns the user registered under email, creating it when
// absent. The bool reports whether a row was created.
func (s *Service) IdentifyUser(ctx context.Context, email, name string) (*models.User, bool, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := checkIdentity(name, email); err != nil {
		return nil, false, err
	}

	user, created, err := s.Store.GetOrCreateUser(ctx, email, name)
	if err != nil {
		logger.Error.Printf("Failed to identify %s: %v", email, err)
		return nil, false, err
	}
	if created {
		logger.Info.Printf("Registered user %s (%s)", user.ID, email)
	}
	return user, created, nil
}

// LookupUser returns nil, nil when no user has this email.
func (s *Service) LookupUser(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	user, err := s.Store.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Error.Printf("Failed to look up %s: %v", email, err)
		return nil, err
	}
	return user, nil
}

func (s *Service) SignUp(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := checkIdentity(name, email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, invalid("password", "must be at least %d characters", minPasswordLength)
	}

	id, err := s.Auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.Store.EnsureUser(ctx, id, name, email)
	if err != nil {
		logger.Error.Printf("Signed up %s as %s but failed to store the user: %v", email, id, err)
		return nil, err
	}
	return user, nil
}

// SignIn opens a session. A user row is created for accounts that signed up
// without one, named after the local part of the email.
func (s *Service) SignIn(ctx context.Context, email, password string) (*auth.Session, *models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, invalid("credentials", "email and password are required")
	}

	session, err := s.Auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.Store.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		name := email
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		}
		user, err = s.Store.EnsureUser(ctx, session.UserID, name, email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create user for %s: %w", email, err)
		}
		logger.Info.Printf("Created missing user row for %s", email)
	}
	return session, user, nil
}

// Authenticate resolves a session token to its user. Accounts whose email
// was already registered before sign-up resolve to the older row.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	session, err := s.Auth.Authenticate(ctx, token)
	if err != nil {
		if !errors.Is(err, auth.ErrSessionNotFound) {
			logger.Error.Printf("Failed to authenticate: %v", err)
		}
		return nil, err
	}

	user, err := s.Store.GetUser(ctx, session.UserID)
	if err != nil || user != nil {
		return user, err
	}
	user, err = s.Store.GetUserByEmail(ctx, session.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
