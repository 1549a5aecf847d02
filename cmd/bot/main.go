package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/app"
	"github.com/shrimpsizemoose/gitaguru/internal/bot"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	b, err := bot.New(service.Config.Bot.Token, service.Config.Bot.AdminIDs, service)
	if err != nil {
		logger.Error.Fatalf("Failed to create bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info.Println("Bot initialized successfully")
	if err := b.Start(ctx); err != nil {
		logger.Error.Fatalf("Bot error: %v", err)
	}
}
