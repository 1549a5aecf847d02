package app

import (
	"context"
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/models"
)

func (s *Service) ListChapters(ctx context.Context) ([]models.Chapter, error) {
	chapters, err := s.Store.ListChapters(ctx)
	if err != nil {
		logger.Error.Printf("Failed to list chapters: %v", err)
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// ListVerses returns an empty list for an unknown chapter.
func (s *Service) ListVerses(ctx context.Context, chapterID string) ([]models.Verse, error) {
	if !validID(chapterID) {
		return []models.Verse{}, nil
	}
	verses, err := s.Store.ListVerses(ctx, chapterID)
	if err != nil {
		logger.Error.Printf("Failed to list verses of %s: %v", chapterID, err)
		return nil, fmt.Errorf("failed to list verses: %w", err)
	}
	return verses, nil
}

func (s *Service) GetChapter(ctx context.Context, id string) (*models.Chapter, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	chapter, err := s.Store.GetChapter(ctx, id)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, ErrNotFound
	}
	return chapter, nil
}

func (s *Service) GetVerse(ctx context.Context, id string) (*models.Verse, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	verse, err := s.Store.GetVerse(ctx, id)
	if err != nil {
		return nil, err
	}
	if verse == nil {
		return nil, ErrNotFound
	}
	return verse, nil
}
