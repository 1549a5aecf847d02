package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shrimpsizemoose/gitaguru/internal/models"
)

const verseColumns = `id, chapter_id, verse_number, text, meaning_telugu, meaning_english, reference_audio_url, created_at`

func (s *BaseStore) CreateChapter(ctx context.Context, number int, name string) (*models.Chapter, error) {
	chapter := &models.Chapter{
		ID:            uuid.NewString(),
		ChapterNumber: number,
		ChapterName:   name,
		CreatedAt:     s.now(),
	}
	if err := chapter.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chapter %d: %w", number, err)
	}

	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO chapters (id, chapter_number, chapter_name, created_at)
		VALUES (:id, :chapter_number, :chapter_name, :created_at)
	`, chapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create chapter %d: %w", number, err)
	}
	return chapter, nil
}

func (s *BaseStore) GetChapter(ctx context.Context, id string) (*models.Chapter, error) {
	var chapter models.Chapter
	found, err := s.getOne(ctx, &chapter, `
		SELECT id, chapter_number, chapter_name, created_at
		FROM chapters
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &chapter, nil
}

func (s *BaseStore) GetChapterByNumber(ctx context.Context, number int) (*models.Chapter, error) {
	var chapter models.Chapter
	found, err := s.getOne(ctx, &chapter, `
		SELECT id, chapter_number, chapter_name, created_at
		FROM chapters
		WHERE chapter_number = ?
	`, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter %d: %w", number, err)
	}
	if !found {
		return nil, nil
	}
	return &chapter, nil
}

func (s *BaseStore) ListChapters(ctx context.Context) ([]models.Chapter, error) {
	chapters := []models.Chapter{}
	err := s.DB.SelectContext(ctx, &chapters, `
		SELECT id, chapter_number, chapter_name, created_at
		FROM chapters
		ORDER BY chapter_number ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

func (s *BaseStore) CreateVerse(ctx context.Context, verse *models.Verse) (*models.Verse, error) {
	if err := verse.Validate(); err != nil {
		return nil, fmt.Errorf("invalid verse %d: %w", verse.VerseNumber, err)
	}

	created := *verse
	created.ID = uuid.NewString()
	created.CreatedAt = s.now()

	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO verses (`+verseColumns+`)
		VALUES (:id, :chapter_id, :verse_number, :text, :meaning_telugu, :meaning_english, :reference_audio_url, :created_at)
	`, &created)
	if err != nil {
		return nil, fmt.Errorf("failed to create verse %d: %w", verse.VerseNumber, err)
	}
	return &created, nil
}

func (s *BaseStore) GetVerse(ctx context.Context, id string) (*models.Verse, error) {
	var verse models.Verse
	found, err := s.getOne(ctx, &verse, `SELECT `+verseColumns+` FROM verses WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get verse %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &verse, nil
}

func (s *BaseStore) GetVerseByChapterAndNumber(ctx context.Context, chapterID string, number int) (*models.Verse, error) {
	var verse models.Verse
	found, err := s.getOne(ctx, &verse, `
		SELECT `+verseColumns+`
		FROM verses
		WHERE chapter_id = ?
		AND verse_number = ?
	`, chapterID, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get verse %d: %w", number, err)
	}
	if !found {
		return nil, nil
	}
	return &verse, nil
}

func (s *BaseStore) ListVerses(ctx context.Context, chapterID string) ([]models.Verse, error) {
	verses := []models.Verse{}
	err := s.DB.SelectContext(ctx, &verses, s.convert(`
		SELECT `+verseColumns+`
		FROM verses
		WHERE chapter_id = ?
		ORDER BY verse_number ASC
	`), chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list verses for chapter %s: %w", chapterID, err)
	}
	return verses, nil
}

func (s *BaseStore) UpdateVerseAudioURL(ctx context.Context, verseID, url string) (*models.Verse, error) {
	res, err := s.DB.ExecContext(ctx, s.convert(`
		UPDATE verses SET reference_audio_url = ? WHERE id = ?
	`), url, verseID)
	if err != nil {
		return nil, fmt.Errorf("failed to update verse audio url: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return s.GetVerse(ctx, verseID)
}
