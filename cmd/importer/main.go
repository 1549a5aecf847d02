package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/app"
	"github.com/shrimpsizemoose/gitaguru/internal/importer"
	"github.com/shrimpsizemoose/gitaguru/migrations"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		audioDir   = flag.String("audio", "", "Directory with one folder of recordings per chapter (overrides import.audio_dir)")
		skipAudio  = flag.Bool("skip-audio", false, "Do not upload reference audio")
		reportPath = flag.String("report", "", "Where to write the upload report (overrides import.report_path)")
	)
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if err := service.Store.ApplyMigrations(migrations.FS); err != nil {
		logger.Error.Fatalf("Failed to apply migrations: %v", err)
	}

	cfg := service.Config.Import
	opts := importer.Options{
		AudioDir:     cfg.AudioDir,
		ChapterFiles: cfg.ChapterFiles,
		ReportPath:   cfg.ReportPath,
	}
	if *audioDir != "" {
		opts.AudioDir = *audioDir
	}
	if *skipAudio {
		opts.AudioDir = ""
	}
	if *reportPath != "" {
		opts.ReportPath = *reportPath
	}
	if flag.NArg() > 0 {
		opts.ChapterFiles = flag.Args()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	im := importer.New(service.Store, service.Blob, importer.Config{
		BasePath:    service.Config.Storage.ReferencePrefix,
		SkipMarkers: cfg.SkipMarkers,
	})

	summary, err := im.Run(ctx, opts)
	if err != nil {
		logger.Error.Fatalf("Import failed: %v", err)
	}

	logger.Info.Printf("Import finished: %d uploads ok, %d failed, %d chapters and %d slokas created, %d linked",
		len(summary.Report.SuccessfulUploads),
		len(summary.Report.FailedUploads),
		len(summary.Populate.ChaptersCreated),
		len(summary.Populate.VersesCreated),
		summary.Linked,
	)
}
