package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shrimpsizemoose/gitaguru/internal/models"
	"github.com/shrimpsizemoose/gitaguru/internal/store"
	"github.com/shrimpsizemoose/gitaguru/migrations"
)

// setupTestDB starts a throwaway Postgres container and applies the schema
func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	if testing.Short() {
		t.Skip("postgres container tests are skipped in -short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(dsn)
	require.NoError(t, err, "Failed to create store")
	require.NoError(t, s.ApplyMigrations(migrations.FS), "Failed to apply migrations")

	cleanup := func() {
		s.Close()
		container.Terminate(ctx)
	}

	return s, cleanup
}

func TestConvertPlaceholders(t *testing.T) {
	assert.Equal(t,
		"SELECT * FROM verses WHERE chapter_id = $1 AND verse_number = $2",
		convertPlaceholders("SELECT * FROM verses WHERE chapter_id = ? AND verse_number = ?"),
	)
	assert.Equal(t, "SELECT 1", convertPlaceholders("SELECT 1"))
}

func TestPostgresContentRoundTrip(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for _, n := range []int{16, 12, 15} {
		_, err := s.CreateChapter(ctx, n, "chapter")
		require.NoError(t, err)
	}

	chapters, err := s.ListChapters(ctx)
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	assert.Equal(t, 12, chapters[0].ChapterNumber)
	assert.Equal(t, 16, chapters[2].ChapterNumber)

	for _, n := range []int{2, 1} {
		_, err := s.CreateVerse(ctx, &models.Verse{ChapterID: chapters[0].ID, VerseNumber: n, Text: "text"})
		require.NoError(t, err)
	}
	verses, err := s.ListVerses(ctx, chapters[0].ID)
	require.NoError(t, err)
	require.Len(t, verses, 2)
	assert.Equal(t, 1, verses[0].VerseNumber)

	missing, err := s.GetChapterByNumber(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostgresGetOrCreateUser(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, created, err := s.GetOrCreateUser(ctx, "arjuna@kurukshetra.in", "Arjuna")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := s.GetOrCreateUser(ctx, "arjuna@kurukshetra.in", "Someone")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Arjuna", second.Name)
}

func TestPostgresSubmissionLifecycle(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	chapter, err := s.CreateChapter(ctx, 12, "Bhakti Yoga")
	require.NoError(t, err)
	verse, err := s.CreateVerse(ctx, &models.Verse{ChapterID: chapter.ID, VerseNumber: 1})
	require.NoError(t, err)
	user, err := s.CreateUser(ctx, "Arjuna", "arjuna@kurukshetra.in")
	require.NoError(t, err)

	_, err = s.CreateSubmission(ctx, user.ID, verse.ID, nil, nil)
	require.ErrorIs(t, err, store.ErrNoAudio)

	rec := "https://cdn.example/rec.mp3"
	sub, err := s.CreateSubmission(ctx, user.ID, verse.ID, &rec, nil)
	require.NoError(t, err)

	notes := "good job"
	updated, err := s.UpdateSubmissionStatus(ctx, sub.ID, models.StatusApproved, &notes)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, "good job", *updated.AdminNotes)
	assert.Equal(t, rec, *updated.RecitationAudioURL)

	views, err := s.ListSubmissions(ctx, store.SubmissionFilter{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Arjuna", *views[0].UserName)
	assert.Equal(t, 1, *views[0].VerseNumber)
}
