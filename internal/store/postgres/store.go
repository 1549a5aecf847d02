package postgres

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/shrimpsizemoose/gitaguru/internal/models"
	"github.com/shrimpsizemoose/gitaguru/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PostgresStore{BaseStore: store.BaseStore{
		DB:        db,
		Converter: convertPlaceholders,
	}}, nil
}

func convertPlaceholders(query string) string {
	out := query
	for i := 1; strings.Contains(out, "?"); i++ {
		out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
	}
	return out
}

func (s *PostgresStore) ApplyMigrations(fsys fs.FS) error {
	return s.BaseStore.ApplyMigrations(fsys, nil)
}

type upsertedUser struct {
	models.User
	Inserted bool `db:"inserted"`
}

// GetOrCreateUser closes the check-then-insert window of the generic
// implementation with a single upsert. xmax is zero only for rows inserted
// by this statement.
func (s *PostgresStore) GetOrCreateUser(ctx context.Context, email, name string) (*models.User, bool, error) {
	candidate := models.User{ID: uuid.NewString(), Name: name, Email: email}
	if err := candidate.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid user: %w", err)
	}

	var row upsertedUser
	err := s.DB.GetContext(ctx, &row, `
		INSERT INTO users (id, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, name, email, created_at, (xmax = 0) AS inserted
	`, candidate.ID, name, email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create user: %w", err)
	}

	return &row.User, row.Inserted, nil
}
