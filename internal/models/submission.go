package models

import "time"

type SubmissionStatus string

const (
	StatusSubmitted     SubmissionStatus = "Submitted"
	StatusApproved      SubmissionStatus = "Approved"
	StatusRejected      SubmissionStatus = "Rejected"
	StatusNeedsRevision SubmissionStatus = "NeedsRevision"
)

var knownStatuses = []SubmissionStatus{
	StatusSubmitted,
	StatusApproved,
	StatusRejected,
	StatusNeedsRevision,
}

func KnownStatuses() []SubmissionStatus {
	out := make([]SubmissionStatus, len(knownStatuses))
	copy(out, knownStatuses)
	return out
}

func (s SubmissionStatus) Valid() bool {
	for _, known := range knownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Submission is a learner upload awaiting moderator review.
// Only Status, AdminNotes and UpdatedAt change after creation.
type Submission struct {
	ID                  string           `db:"id" json:"id"`
	UserID              string           `db:"user_id" json:"user_id"`
	VerseID             string           `db:"verse_id" json:"verse_id"`
	RecitationAudioURL  *string          `db:"recitation_audio_url" json:"recitation_audio_url,omitempty"`
	ExplanationAudioURL *string          `db:"explanation_audio_url" json:"explanation_audio_url,omitempty"`
	Status              SubmissionStatus `db:"status" json:"status"`
	AdminNotes          *string          `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
}

func (s *Submission) HasAudio() bool {
	return nonEmpty(s.RecitationAudioURL) || nonEmpty(s.ExplanationAudioURL)
}

// SubmissionView carries the user and verse summary fields shown next to a
// submission. The joined columns are nil when the referenced row is gone.
type SubmissionView struct {
	Submission
	UserName    *string `db:"user_name" json:"user_name,omitempty"`
	UserEmail   *string `db:"user_email" json:"user_email,omitempty"`
	VerseNumber *int    `db:"verse_number" json:"verse_number,omitempty"`
	VerseText   *string `db:"verse_text" json:"verse_text,omitempty"`
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
