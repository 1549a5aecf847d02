package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/metrics"
	"github.com/shrimpsizemoose/gitaguru/internal/models"
	"github.com/shrimpsizemoose/gitaguru/internal/progress"
	"github.com/shrimpsizemoose/gitaguru/internal/store"
)

type SubmissionQuery struct {
	UserID  string
	VerseID string
	// Email resolves to UserID; an unknown email matches nothing.
	Email  string
	Status string
	Limit  int
}

func (s *Service) ListSubmissions(ctx context.Context, q SubmissionQuery) ([]models.SubmissionView, error) {
	filter := store.SubmissionFilter{
		UserID:  q.UserID,
		VerseID: q.VerseID,
		Status:  models.SubmissionStatus(q.Status),
		Limit:   q.Limit,
	}
	if q.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status", "unknown status %q", q.Status)
	}
	if q.Limit < 0 {
		return nil, invalid("limit", "must not be negative")
	}
	if (q.UserID != "" && !validID(q.UserID)) || (q.VerseID != "" && !validID(q.VerseID)) {
		return []models.SubmissionView{}, nil
	}

	if q.Email != "" {
		user, err := s.LookupUser(ctx, q.Email)
		if err != nil {
			return nil, err
		}
		if user == nil || (q.UserID != "" && q.UserID != user.ID) {
			return []models.SubmissionView{}, nil
		}
		filter.UserID = user.ID
	}

	submissions, err := s.Store.ListSubmissions(ctx, filter)
	if err != nil {
		logger.Error.Printf("Failed to list submissions: %v", err)
		return nil, err
	}
	return submissions, nil
}

// UserSubmissions lists what the user registered under email has submitted,
// newest first. An unknown email gives nil without error.
func (s *Service) UserSubmissions(ctx context.Context, email string) ([]models.SubmissionView, error) {
	user, err := s.LookupUser(ctx, email)
	if err != nil || user == nil {
		return nil, err
	}
	return s.Store.ListSubmissions(ctx, store.SubmissionFilter{UserID: user.ID})
}

func (s *Service) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	submission, err := s.Store.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, ErrNotFound
	}
	return submission, nil
}

// ReviewSubmission sets the status of a submission. Any known status may
// follow any other. Empty notes keep the previous notes.
func (s *Service) ReviewSubmission(ctx context.Context, id string, status models.SubmissionStatus, notes string) (*models.Submission, error) {
	if !status.Valid() {
		return nil, invalid("status", "unknown status %q", status)
	}
	if !validID(id) {
		return nil, ErrNotFound
	}

	var notesArg *string
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		notesArg = &trimmed
	}

	submission, err := s.Store.UpdateSubmissionStatus(ctx, id, status, notesArg)
	if err != nil {
		logger.Error.Printf("Failed to review submission %s: %v", id, err)
		return nil, err
	}
	if submission == nil {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}

	metrics.SubmissionReviewsTotal.WithLabelValues(string(status)).Inc()
	logger.Info.Printf("Submission %s is now %s", id, status)
	return submission, nil
}

func (s *Service) Progress(ctx context.Context, userID string) ([]progress.ChapterProgress, error) {
	if !validID(userID) {
		return nil, ErrNotFound
	}
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return s.tracker.ForUser(ctx, userID)
}
