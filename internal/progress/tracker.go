// internal/progress/tracker.go
package progress

import (
	"context"
	"fmt"

	"github.com/shrimpsizemoose/gitaguru/internal/models"
	"github.com/shrimpsizemoose/gitaguru/internal/store"
)

// Reader is the part of the store progress is computed from.
type Reader interface {
	ListChapters(ctx context.Context) ([]models.Chapter, error)
	ListVerses(ctx context.Context, chapterID string) ([]models.Verse, error)
	ListSubmissions(ctx context.Context, filter store.SubmissionFilter) ([]models.SubmissionView, error)
}

type VerseProgress struct {
	VerseID      string                   `json:"verse_id"`
	VerseNumber  int                      `json:"verse_number"`
	Submissions  int                      `json:"submissions"`
	LatestStatus *models.SubmissionStatus `json:"latest_status,omitempty"`
}

type ChapterProgress struct {
	ChapterID     string          `json:"chapter_id"`
	ChapterNumber int             `json:"chapter_number"`
	ChapterName   string          `json:"chapter_name"`
	TotalVerses   int             `json:"total_verses"`
	Attempted     int             `json:"attempted"`
	Approved      int             `json:"approved"`
	Verses        []VerseProgress `json:"verses"`
}

// Percent is the share of approved verses, rounded down.
func (c ChapterProgress) Percent() int {
	if c.TotalVerses == 0 {
		return 0
	}
	return c.Approved * 100 / c.TotalVerses
}

type Tracker struct {
	store Reader
}

func NewTracker(store Reader) *Tracker {
	return &Tracker{store: store}
}

// ForUser reports per chapter how far userID got. A verse counts as approved
// when any of its submissions was approved, even if a later one was not.
func (t *Tracker) ForUser(ctx context.Context, userID string) ([]ChapterProgress, error) {
	submissions, err := t.store.ListSubmissions(ctx, store.SubmissionFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions of %s: %w", userID, err)
	}

	type verseState struct {
		count    int
		latest   models.SubmissionStatus
		approved bool
	}
	byVerse := make(map[string]*verseState)
	// newest first, so the first one seen per verse is the latest
	for _, s := range submissions {
		state, ok := byVerse[s.VerseID]
		if !ok {
			state = &verseState{latest: s.Status}
			byVerse[s.VerseID] = state
		}
		state.count++
		if s.Status == models.StatusApproved {
			state.approved = true
		}
	}

	chapters, err := t.store.ListChapters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}

	result := make([]ChapterProgress, 0, len(chapters))
	for _, ch := range chapters {
		verses, err := t.store.ListVerses(ctx, ch.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list verses of chapter %d: %w", ch.ChapterNumber, err)
		}

		cp := ChapterProgress{
			ChapterID:     ch.ID,
			ChapterNumber: ch.ChapterNumber,
			ChapterName:   ch.ChapterName,
			TotalVerses:   len(verses),
			Verses:        make([]VerseProgress, 0, len(verses)),
		}
		for _, v := range verses {
			vp := VerseProgress{VerseID: v.ID, VerseNumber: v.VerseNumber}
			if state, ok := byVerse[v.ID]; ok {
				latest := state.latest
				vp.Submissions = state.count
				vp.LatestStatus = &latest
				cp.Attempted++
				if state.approved {
					cp.Approved++
				}
			}
			cp.Verses = append(cp.Verses, vp)
		}
		result = append(result, cp)
	}

	return result, nil
}
