package store

import (
	"errors"

	"github.com/shrimpsizemoose/gitaguru/internal/models"
)

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// ErrNoAudio is returned by CreateSubmission when neither audio URL is set.
// Nothing is written in that case.
var ErrNoAudio = errors.New("submission needs at least one audio url")

// SubmissionFilter narrows ListSubmissions. Zero-valued fields do not filter.
type SubmissionFilter struct {
	UserID  string
	VerseID string
	Status  models.SubmissionStatus
	Limit   int
}
