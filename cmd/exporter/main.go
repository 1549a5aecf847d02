package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/app"
	"github.com/shrimpsizemoose/gitaguru/internal/export"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		status     = flag.String("status", "", "Export only submissions with this status (overrides export.status)")
		once       = flag.Bool("once", false, "Export once and exit even when export.schedule is set")
	)
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	cfg := service.Config.Export
	if *status != "" {
		cfg.Status = *status
	}

	ctx := context.Background()
	exporter, err := export.NewGSheetExporter(ctx, cfg.CredentialsPath, export.Config{
		SheetID:   cfg.SheetID,
		SheetName: cfg.SheetName,
		StartCell: cfg.StartCell,
		StampCell: cfg.StampCell,
		Status:    cfg.Status,
	}, service)
	if err != nil {
		logger.Error.Fatalf("Failed to initialize Google Sheets exporter: %v", err)
	}

	if cfg.Schedule == "" || *once {
		n, err := exporter.Export(ctx)
		if err != nil {
			logger.Error.Fatalf("Export failed: %v", err)
		}
		logger.Info.Printf("Exported %d submissions", n)
		return
	}

	scheduler, err := exporter.Schedule(ctx, cfg.Schedule)
	if err != nil {
		logger.Error.Fatalf("Failed to schedule export: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	scheduler.Stop()
	logger.Info.Println("Exporter stopped")
}
