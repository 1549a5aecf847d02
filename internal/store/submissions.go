package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shrimpsizemoose/gitaguru/internal/models"
)

const submissionColumns = `id, user_id, verse_id, recitation_audio_url, explanation_audio_url, status, admin_notes, created_at, updated_at`

func (s *BaseStore) CreateSubmission(ctx context.Context, userID, verseID string, recitationURL, explanationURL *string) (*models.Submission, error) {
	now := s.now()
	submission := &models.Submission{
		ID:                  uuid.NewString(),
		UserID:              userID,
		VerseID:             verseID,
		RecitationAudioURL:  blankToNil(recitationURL),
		ExplanationAudioURL: blankToNil(explanationURL),
		Status:              models.StatusSubmitted,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if !submission.HasAudio() {
		return nil, ErrNoAudio
	}

	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO submissions (`+submissionColumns+`)
		VALUES (:id, :user_id, :verse_id, :recitation_audio_url, :explanation_audio_url, :status, :admin_notes, :created_at, :updated_at)
	`, submission)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return submission, nil
}

func (s *BaseStore) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	var submission models.Submission
	found, err := s.getOne(ctx, &submission, `SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &submission, nil
}

func (s *BaseStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.SubmissionView, error) {
	var (
		where strings.Builder
		args  []interface{}
	)
	if filter.UserID != "" {
		where.WriteString(" AND s.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.VerseID != "" {
		where.WriteString(" AND s.verse_id = ?")
		args = append(args, filter.VerseID)
	}
	if filter.Status != "" {
		where.WriteString(" AND s.status = ?")
		args = append(args, string(filter.Status))
	}

	query := `
		SELECT
			s.id,
			s.user_id,
			s.verse_id,
			s.recitation_audio_url,
			s.explanation_audio_url,
			s.status,
			s.admin_notes,
			s.created_at,
			s.updated_at,
			u.name AS user_name,
			u.email AS user_email,
			v.verse_number AS verse_number,
			v.text AS verse_text
		FROM submissions s
		LEFT JOIN users u ON u.id = s.user_id
		LEFT JOIN verses v ON v.id = s.verse_id
		WHERE 1=1` + where.String() + `
		ORDER BY s.created_at DESC, s.id DESC`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	views := []models.SubmissionView{}
	if err := s.DB.SelectContext(ctx, &views, s.convert(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return views, nil
}

// UpdateSubmissionStatus sets status and, when notes is non-empty,
// admin_notes. Any status string is accepted.
func (s *BaseStore) UpdateSubmissionStatus(ctx context.Context, id string, status models.SubmissionStatus, notes *string) (*models.Submission, error) {
	query := `UPDATE submissions SET status = ?, updated_at = ? WHERE id = ?`
	args := []interface{}{string(status), s.now(), id}
	if notes != nil && *notes != "" {
		query = `UPDATE submissions SET status = ?, admin_notes = ?, updated_at = ? WHERE id = ?`
		args = []interface{}{string(status), *notes, s.now(), id}
	}

	res, err := s.DB.ExecContext(ctx, s.convert(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update submission %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return s.GetSubmission(ctx, id)
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
