// Package importer loads chapters, verses and reference audio into the
// content and blob stores. Every step is safe to re-run.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/blob"
	"github.com/shrimpsizemoose/gitaguru/internal/metrics"
	"github.com/shrimpsizemoose/gitaguru/internal/models"
	"github.com/shrimpsizemoose/gitaguru/internal/store"
)

const StatusSuccess = "success"

type Config struct {
	// BasePath prefixes reference audio object paths.
	BasePath string
	// SkipMarkers are matched case-insensitively against file names; a
	// match means the file is not a verse recording.
	SkipMarkers []string
	Extensions  []string
}

func DefaultConfig() Config {
	return Config{
		BasePath:    "gita-guru/audio",
		SkipMarkers: []string{"pushpika"},
		Extensions:  []string{".mp3", ".wav"},
	}
}

type Importer struct {
	store  store.Store
	blob   blob.Store
	config Config
}

func New(st store.Store, bs blob.Store, config Config) *Importer {
	defaults := DefaultConfig()
	if config.BasePath == "" {
		config.BasePath = defaults.BasePath
	}
	if config.SkipMarkers == nil {
		config.SkipMarkers = defaults.SkipMarkers
	}
	if len(config.Extensions) == 0 {
		config.Extensions = defaults.Extensions
	}
	return &Importer{store: st, blob: bs, config: config}
}

type UploadResult struct {
	Chapter     int    `json:"chapter"`
	Sloka       string `json:"sloka"`
	Filename    string `json:"filename"`
	StoragePath string `json:"storage_path"`
	PublicURL   string `json:"public_url"`
	Status      string `json:"status"`
}

type UploadFailure struct {
	Chapter  int    `json:"chapter"`
	Sloka    string `json:"sloka"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type Report struct {
	SuccessfulUploads []UploadResult  `json:"successful_uploads"`
	FailedUploads     []UploadFailure `json:"failed_uploads"`
}

type PopulateResult struct {
	ChaptersCreated []models.Chapter
	VersesCreated   []models.Verse
	VersesSkipped   int
	FailedFiles     []string
}

// UploadReferenceAudio walks dir/{chapter}/{verse}.{ext} and uploads every
// verse recording with upsert. Per-file failures are collected in the
// report; only an unreadable dir is an error.
func (im *Importer) UploadReferenceAudio(ctx context.Context, dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio directory %s: %w", dir, err)
	}

	type chapterDir struct {
		number int
		path   string
	}
	var chapters []chapterDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		n, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		chapters = append(chapters, chapterDir{number: n, path: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].number < chapters[j].number })

	report := &Report{SuccessfulUploads: []UploadResult{}, FailedUploads: []UploadFailure{}}
	for _, ch := range chapters {
		logger.Info.Printf("Processing chapter %d audio", ch.number)

		files, err := os.ReadDir(ch.path)
		if err != nil {
			logger.Error.Printf("Failed to read chapter directory %s: %v", ch.path, err)
			continue
		}

		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if file.IsDir() || !im.isAudioFile(file.Name()) {
				continue
			}

			ext := filepath.Ext(file.Name())
			sloka := strings.TrimSuffix(file.Name(), ext)
			if im.isSkipped(sloka) {
				logger.Info.Printf("  Skipping special file: %s", file.Name())
				continue
			}

			result, err := im.uploadOne(ctx, ch.number, sloka, filepath.Join(ch.path, file.Name()), ext)
			metrics.ImportItemsTotal.WithLabelValues("upload", metrics.Result(err)).Inc()
			if err != nil {
				logger.Error.Printf("  Failed to upload %s: %v", file.Name(), err)
				report.FailedUploads = append(report.FailedUploads, UploadFailure{
					Chapter:  ch.number,
					Sloka:    sloka,
					Filename: file.Name(),
					Error:    err.Error(),
				})
				continue
			}
			logger.Info.Printf("  Uploaded %s -> %s", file.Name(), result.PublicURL)
			report.SuccessfulUploads = append(report.SuccessfulUploads, *result)
		}
	}

	logger.Info.Printf("Upload summary: %d succeeded, %d failed",
		len(report.SuccessfulUploads), len(report.FailedUploads))
	return report, nil
}

func (im *Importer) uploadOne(ctx context.Context, chapter int, sloka, filePath, ext string) (*UploadResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	contentType, _ := blob.DetectContentType(data, filePath)
	storagePath := blob.ReferencePath(im.config.BasePath, chapter, sloka, strings.ToLower(ext))
	if err := im.blob.Upload(ctx, storagePath, data, contentType, true); err != nil {
		metrics.BlobUploadsTotal.WithLabelValues("reference", "error").Inc()
		return nil, err
	}
	metrics.BlobUploadsTotal.WithLabelValues("reference", "ok").Inc()

	return &UploadResult{
		Chapter:     chapter,
		Sloka:       sloka,
		Filename:    filepath.Base(filePath),
		StoragePath: storagePath,
		PublicURL:   im.blob.PublicURL(storagePath),
		Status:      StatusSuccess,
	}, nil
}

func (im *Importer) isAudioFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range im.config.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func (im *Importer) isSkipped(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range im.config.SkipMarkers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// PopulateContent creates missing chapters and verses from chapter files.
// A file that cannot be read or parsed is skipped, so is a record without
// a verse number.
func (im *Importer) PopulateContent(ctx context.Context, files []string) (*PopulateResult, error) {
	result := &PopulateResult{}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		logger.Info.Printf("Processing %s", file)

		records, err := loadRecords(file)
		if err != nil {
			logger.Error.Printf("Skipping %s: %v", file, err)
			metrics.ImportItemsTotal.WithLabelValues("chapter", "error").Inc()
			result.FailedFiles = append(result.FailedFiles, file)
			continue
		}
		if len(records) == 0 {
			logger.Info.Printf("No data found in %s", file)
			continue
		}

		chapter, created, err := im.ensureChapter(ctx, records[0])
		if err != nil {
			logger.Error.Printf("Skipping %s: %v", file, err)
			metrics.ImportItemsTotal.WithLabelValues("chapter", "error").Inc()
			result.FailedFiles = append(result.FailedFiles, file)
			continue
		}
		if created {
			result.ChaptersCreated = append(result.ChaptersCreated, *chapter)
			metrics.ImportItemsTotal.WithLabelValues("chapter", "created").Inc()
		} else {
			metrics.ImportItemsTotal.WithLabelValues("chapter", "skipped").Inc()
		}

		for _, record := range records {
			verse, err := im.ensureVerse(ctx, chapter, record)
			switch {
			case err != nil:
				logger.Error.Printf("  %v", err)
				metrics.ImportItemsTotal.WithLabelValues("verse", "error").Inc()
			case verse == nil:
				result.VersesSkipped++
				metrics.ImportItemsTotal.WithLabelValues("verse", "skipped").Inc()
			default:
				logger.Info.Printf("  Created sloka %d", verse.VerseNumber)
				result.VersesCreated = append(result.VersesCreated, *verse)
				metrics.ImportItemsTotal.WithLabelValues("verse", "created").Inc()
			}
		}
	}

	logger.Info.Printf("Population summary: %d chapters created, %d slokas created",
		len(result.ChaptersCreated), len(result.VersesCreated))
	return result, nil
}

func (im *Importer) ensureChapter(ctx context.Context, first Record) (*models.Chapter, bool, error) {
	number := int(first.Chapter)

	existing, err := im.store.GetChapterByNumber(ctx, number)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		logger.Info.Printf("  Chapter %d already exists, reusing it", number)
		return existing, false, nil
	}

	name := first.ChapterName
	if name == "" {
		name = fmt.Sprintf("Chapter %d", number)
	}
	chapter, err := im.store.CreateChapter(ctx, number, name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create chapter %d: %w", number, err)
	}
	logger.Info.Printf("  Created chapter %d: %s", number, name)
	return chapter, true, nil
}

// ensureVerse returns nil, nil when the record is skipped.
func (im *Importer) ensureVerse(ctx context.Context, chapter *models.Chapter, record Record) (*models.Verse, error) {
	number, err := record.slokaNumber()
	if errors.Is(err, errNoSlokaNumber) {
		logger.Info.Printf("WARN   Skipping entry without sloka_number: %s", record.title())
		return nil, nil
	}
	if err != nil {
		logger.Info.Printf("WARN   Skipping entry with unusable sloka_number %s: %s", record.SlokaNumber, record.title())
		return nil, nil
	}

	existing, err := im.store.GetVerseByChapterAndNumber(ctx, chapter.ID, number)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Debug.Printf("  Sloka %d already exists, skipping", number)
		return nil, nil
	}

	verse, err := im.store.CreateVerse(ctx, &models.Verse{
		ChapterID:      chapter.ID,
		VerseNumber:    number,
		Text:           record.SlokaText,
		MeaningTelugu:  record.TeluguMeaning,
		MeaningEnglish: record.EnglishMeaning,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sloka %d: %w", number, err)
	}
	return verse, nil
}

// LinkReferenceAudio attaches uploaded URLs to their verses. Uploads whose
// verse part is not a number, or whose verse does not exist, are ignored.
// A failed link is logged and the rest are still attempted; the failures
// come back joined.
func (im *Importer) LinkReferenceAudio(ctx context.Context, uploads []UploadResult) (int, error) {
	chapters := make(map[int]*models.Chapter)
	linked := 0
	var errs []error

	for _, upload := range uploads {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if upload.Status != StatusSuccess {
			continue
		}
		number, err := strconv.Atoi(upload.Sloka)
		if err != nil {
			continue
		}

		chapter, ok := chapters[upload.Chapter]
		if !ok {
			chapter, err = im.store.GetChapterByNumber(ctx, upload.Chapter)
			if err != nil {
				logger.Error.Printf("Failed to look up chapter %d: %v", upload.Chapter, err)
				metrics.ImportItemsTotal.WithLabelValues("link", "error").Inc()
				errs = append(errs, fmt.Errorf("chapter %d: %w", upload.Chapter, err))
				continue
			}
			chapters[upload.Chapter] = chapter
		}
		if chapter == nil {
			continue
		}

		verse, err := im.store.GetVerseByChapterAndNumber(ctx, chapter.ID, number)
		if err != nil {
			logger.Error.Printf("Failed to look up sloka %d.%d: %v", upload.Chapter, number, err)
			metrics.ImportItemsTotal.WithLabelValues("link", "error").Inc()
			errs = append(errs, fmt.Errorf("sloka %d.%d: %w", upload.Chapter, number, err))
			continue
		}
		if verse == nil {
			logger.Debug.Printf("No sloka %d.%d to attach %s to", upload.Chapter, number, upload.PublicURL)
			continue
		}
		if verse.ReferenceAudioURL != nil && *verse.ReferenceAudioURL == upload.PublicURL {
			continue
		}

		if _, err := im.store.UpdateVerseAudioURL(ctx, verse.ID, upload.PublicURL); err != nil {
			logger.Error.Printf("Failed to attach %s to sloka %d.%d: %v", upload.PublicURL, upload.Chapter, number, err)
			metrics.ImportItemsTotal.WithLabelValues("link", "error").Inc()
			errs = append(errs, fmt.Errorf("sloka %d.%d: %w", upload.Chapter, number, err))
			continue
		}
		metrics.ImportItemsTotal.WithLabelValues("link", "ok").Inc()
		linked++
	}
	return linked, errors.Join(errs...)
}

type Options struct {
	// AudioDir holds one directory per chapter; empty skips the upload step.
	AudioDir     string
	ChapterFiles []string
	// ReportPath receives the upload report; empty skips writing it.
	ReportPath string
}

type Summary struct {
	Report   *Report
	Populate *PopulateResult
	Linked   int
}

// Run uploads, populates and links in that order. The upload report is
// written whenever ReportPath is set, even when a later step fails.
func (im *Importer) Run(ctx context.Context, opts Options) (summary *Summary, err error) {
	summary = &Summary{Report: &Report{SuccessfulUploads: []UploadResult{}, FailedUploads: []UploadFailure{}}}

	if opts.ReportPath != "" {
		defer func() {
			if werr := WriteReport(opts.ReportPath, summary.Report); werr != nil {
				logger.Error.Printf("Failed to save %s: %v", opts.ReportPath, werr)
				return
			}
			logger.Info.Printf("Results saved to %s", opts.ReportPath)
		}()
	}

	if opts.AudioDir != "" {
		report, err := im.UploadReferenceAudio(ctx, opts.AudioDir)
		if report != nil {
			summary.Report = report
		}
		if err != nil {
			return summary, err
		}
	}

	populate, err := im.PopulateContent(ctx, opts.ChapterFiles)
	summary.Populate = populate
	if err != nil {
		return summary, err
	}

	summary.Linked, err = im.LinkReferenceAudio(ctx, summary.Report.SuccessfulUploads)
	if err != nil {
		return summary, fmt.Errorf("failed to link reference audio: %w", err)
	}
	return summary, nil
}

func WriteReport(path string, report *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
