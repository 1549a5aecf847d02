package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/app"
	"github.com/shrimpsizemoose/gitaguru/internal/models"
)

const timeFormat = "2006-01-02 15:04:05"

var header = []interface{}{
	"created_at_utc",
	"submission_id",
	"user_name",
	"user_email",
	"verse_number",
	"status",
	"recitation_audio_url",
	"explanation_audio_url",
	"admin_notes",
	"updated_at_utc",
}

type SubmissionLister interface {
	ListSubmissions(ctx context.Context, q app.SubmissionQuery) ([]models.SubmissionView, error)
}

// RangeWriter replaces the values of an A1 range.
type RangeWriter interface {
	WriteRange(ctx context.Context, sheetID, a1Range string, rows [][]interface{}) error
}

type Config struct {
	SheetID   string
	SheetName string
	StartCell string
	// StampCell, when set, receives the time of the export.
	StampCell string
	// Status limits the export to one status; empty exports everything.
	Status string
}

type GSheetExporter struct {
	config Config
	source SubmissionLister
	writer RangeWriter
	now    func() time.Time
}

func NewGSheetExporter(ctx context.Context, credentialsPath string, config Config, source SubmissionLister) (*GSheetExporter, error) {
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return New(config, source, &sheetsWriter{svc: svc}), nil
}

func New(config Config, source SubmissionLister, writer RangeWriter) *GSheetExporter {
	if config.StartCell == "" {
		config.StartCell = "A1"
	}
	return &GSheetExporter{config: config, source: source, writer: writer, now: time.Now}
}

// Export writes the header and one row per submission, newest first. It
// returns how many submissions were written.
func (e *GSheetExporter) Export(ctx context.Context) (int, error) {
	submissions, err := e.source.ListSubmissions(ctx, app.SubmissionQuery{Status: e.config.Status})
	if err != nil {
		return 0, fmt.Errorf("failed to read submissions: %w", err)
	}

	rows := BuildRows(submissions)
	a1Range := fmt.Sprintf("%s!%s", e.config.SheetName, e.config.StartCell)
	if err := e.writer.WriteRange(ctx, e.config.SheetID, a1Range, rows); err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", a1Range, err)
	}

	if e.config.StampCell != "" {
		stampRange := fmt.Sprintf("%s!%s", e.config.SheetName, e.config.StampCell)
		stamp := [][]interface{}{{Stamp(e.now())}}
		if err := e.writer.WriteRange(ctx, e.config.SheetID, stampRange, stamp); err != nil {
			return 0, fmt.Errorf("failed to update %s: %w", stampRange, err)
		}
	}

	logger.Info.Printf("Exported %d submissions to %s", len(submissions), a1Range)
	return len(submissions), nil
}

// Schedule runs Export on a cron spec, evaluated in UTC, until the returned
// scheduler is stopped. A failed run is logged and the next one still fires.
func (e *GSheetExporter) Schedule(ctx context.Context, spec string) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	_, err := scheduler.Cron(spec).Do(func() {
		if _, err := e.Export(ctx); err != nil {
			logger.Error.Printf("Export failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule export %q: %w", spec, err)
	}

	scheduler.StartAsync()
	logger.Info.Printf("Export scheduled at %q", spec)
	return scheduler, nil
}

func BuildRows(submissions []models.SubmissionView) [][]interface{} {
	rows := make([][]interface{}, 0, len(submissions)+1)
	rows = append(rows, header)
	for _, s := range submissions {
		verse := ""
		if s.VerseNumber != nil {
			verse = fmt.Sprint(*s.VerseNumber)
		}
		rows = append(rows, []interface{}{
			s.CreatedAt.UTC().Format(timeFormat),
			s.ID,
			str(s.UserName),
			str(s.UserEmail),
			verse,
			string(s.Status),
			str(s.RecitationAudioURL),
			str(s.ExplanationAudioURL),
			str(s.AdminNotes),
			s.UpdatedAt.UTC().Format(timeFormat),
		})
	}
	return rows
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type sheetsWriter struct {
	svc *sheets.Service
}

func (w *sheetsWriter) WriteRange(ctx context.Context, sheetID, a1Range string, rows [][]interface{}) error {
	_, err := w.svc.Spreadsheets.Values.Update(sheetID, a1Range, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// Stamp is the "last updated" note written next to the table.
func Stamp(now time.Time) string {
	return fmt.Sprintf("UPD: %s UTC", now.UTC().Format("2 January 15:04"))
}
