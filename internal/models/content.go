package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Chapter struct {
	ID            string    `db:"id" json:"id"`
	ChapterNumber int       `db:"chapter_number" json:"chapter_number" validate:"min=1"`
	ChapterName   string    `db:"chapter_name" json:"chapter_name" validate:"required"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Verse is a single sloka with its bilingual meaning.
type Verse struct {
	ID                string    `db:"id" json:"id"`
	ChapterID         string    `db:"chapter_id" json:"chapter_id" validate:"required"`
	VerseNumber       int       `db:"verse_number" json:"verse_number" validate:"min=1"`
	Text              string    `db:"text" json:"text"`
	MeaningTelugu     string    `db:"meaning_telugu" json:"meaning_telugu"`
	MeaningEnglish    string    `db:"meaning_english" json:"meaning_english"`
	ReferenceAudioURL *string   `db:"reference_audio_url" json:"reference_audio_url,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

func (c *Chapter) Validate() error {
	return validate.Struct(c)
}

func (v *Verse) Validate() error {
	return validate.Struct(v)
}

func (v *Verse) HasReferenceAudio() bool {
	return v.ReferenceAudioURL != nil && *v.ReferenceAudioURL != ""
}
