package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/models"
)

type Store interface {
	Close() error
	ApplyMigrations(fsys fs.FS) error

	CreateChapter(ctx context.Context, number int, name string) (*models.Chapter, error)
	GetChapter(ctx context.Context, id string) (*models.Chapter, error)
	GetChapterByNumber(ctx context.Context, number int) (*models.Chapter, error)
	ListChapters(ctx context.Context) ([]models.Chapter, error)

	CreateVerse(ctx context.Context, verse *models.Verse) (*models.Verse, error)
	GetVerse(ctx context.Context, id string) (*models.Verse, error)
	GetVerseByChapterAndNumber(ctx context.Context, chapterID string, number int) (*models.Verse, error)
	ListVerses(ctx context.Context, chapterID string) ([]models.Verse, error)
	UpdateVerseAudioURL(ctx context.Context, verseID, url string) (*models.Verse, error)

	CreateUser(ctx context.Context, name, email string) (*models.User, error)
	EnsureUser(ctx context.Context, id, name, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetOrCreateUser(ctx context.Context, email, name string) (*models.User, bool, error)

	CreateSubmission(ctx context.Context, userID, verseID string, recitationURL, explanationURL *string) (*models.Submission, error)
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.SubmissionView, error)
	UpdateSubmissionStatus(ctx context.Context, id string, status models.SubmissionStatus, notes *string) (*models.Submission, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
	// Now stamps created_at/updated_at; tests pin it for stable ordering.
	Now func() time.Time
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations runs every .sql file of fsys in name order, translating
// dialect if needed. Migrations must be idempotent.
func (s *BaseStore) ApplyMigrations(fsys fs.FS, translateSQL func(string) string) error {
	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := fs.ReadFile(fsys, file.Name())
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		query := string(content)
		if translateSQL != nil {
			query = translateSQL(query)
		}

		logger.Debug.Printf("Applying migration: %s", file.Name())
		if _, err := s.DB.Exec(query); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) now() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	// postgres keeps microseconds only
	return now().UTC().Truncate(time.Microsecond)
}

func (s *BaseStore) convert(query string) string {
	if s.Converter == nil {
		return query
	}
	return s.Converter(query)
}

// getOne runs a single-row query; a missing row is reported as found=false.
func (s *BaseStore) getOne(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := s.DB.GetContext(ctx, dest, s.convert(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
