package app

import (
	"context"
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/blob"
	"github.com/shrimpsizemoose/gitaguru/internal/metrics"
	"github.com/shrimpsizemoose/gitaguru/internal/models"
	"github.com/shrimpsizemoose/gitaguru/internal/store"
)

const (
	KindRecitation  = "recitation"
	KindExplanation = "explanation"
)

type AudioFile struct {
	Filename string
	Data     []byte
}

func (f *AudioFile) present() bool {
	return f != nil && len(f.Data) > 0
}

type SubmitRequest struct {
	UserID      string
	VerseID     string
	Recitation  *AudioFile
	Explanation *AudioFile
}

type pendingUpload struct {
	kind string
	file *AudioFile
	url  *string
}

// Submit stores the attached audio and records a submission for review.
// Everything is validated before the first upload. A failure after an
// upload leaves that object in the blob store.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.Submission, error) {
	if !req.Recitation.present() && !req.Explanation.present() {
		return nil, store.ErrNoAudio
	}

	var uploads []*pendingUpload
	for _, u := range []*pendingUpload{
		{kind: KindRecitation, file: req.Recitation},
		{kind: KindExplanation, file: req.Explanation},
	} {
		if !u.file.present() {
			continue
		}
		if int64(len(u.file.Data)) > s.Config.Upload.MaxBytes {
			return nil, invalid(u.kind, "file is larger than %d bytes", s.Config.Upload.MaxBytes)
		}
		if !blob.IsAudio(u.file.Data) {
			return nil, invalid(u.kind, "%s is not an audio file", u.file.Filename)
		}
		uploads = append(uploads, u)
	}

	if err := s.checkSubmitter(ctx, req.UserID, req.VerseID); err != nil {
		return nil, err
	}

	var stored []string
	for _, u := range uploads {
		contentType, ext := blob.DetectContentType(u.file.Data, u.file.Filename)
		path := blob.SubmissionPath(s.Config.Storage.SubmissionsPrefix, req.UserID, u.kind, req.VerseID, s.now(), ext)

		err := s.Blob.Upload(ctx, path, u.file.Data, contentType, false)
		metrics.BlobUploadsTotal.WithLabelValues(u.kind, metrics.Result(err)).Inc()
		if err != nil {
			logger.Error.Printf("Failed to upload %s for user %s: %v", u.kind, req.UserID, err)
			logOrphans(stored)
			return nil, fmt.Errorf("failed to upload %s: %w", u.kind, err)
		}

		url := s.Blob.PublicURL(path)
		u.url = &url
		stored = append(stored, path)
	}

	var recitationURL, explanationURL *string
	for _, u := range uploads {
		switch u.kind {
		case KindRecitation:
			recitationURL = u.url
		case KindExplanation:
			explanationURL = u.url
		}
	}

	submission, err := s.Store.CreateSubmission(ctx, req.UserID, req.VerseID, recitationURL, explanationURL)
	if err != nil {
		logger.Error.Printf("Failed to record submission of user %s for verse %s: %v", req.UserID, req.VerseID, err)
		logOrphans(stored)
		return nil, err
	}

	metrics.SubmissionsTotal.WithLabelValues(metrics.SubmissionKind(recitationURL != nil, explanationURL != nil)).Inc()
	logger.Info.Printf("Submission %s recorded for user %s, verse %s", submission.ID, req.UserID, req.VerseID)
	return submission, nil
}

func (s *Service) checkSubmitter(ctx context.Context, userID, verseID string) error {
	if !validID(userID) {
		return fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	if !validID(verseID) {
		return fmt.Errorf("verse %q: %w", verseID, ErrNotFound)
	}

	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	verse, err := s.Store.GetVerse(ctx, verseID)
	if err != nil {
		return err
	}
	if verse == nil {
		return fmt.Errorf("verse %s: %w", verseID, ErrNotFound)
	}
	return nil
}

func logOrphans(paths []string) {
	for _, p := range paths {
		logger.Info.Printf("WARN orphaned upload left in blob store: %s", p)
	}
}
