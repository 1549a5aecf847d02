// Package bot is the Telegram front end moderators use to work through the
// review queue.
package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/app"
	"github.com/shrimpsizemoose/gitaguru/internal/models"
)

// Moderation is what the bot needs from the application layer.
type Moderation interface {
	ListChapters(ctx context.Context) ([]models.Chapter, error)
	ListSubmissions(ctx context.Context, q app.SubmissionQuery) ([]models.SubmissionView, error)
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	ReviewSubmission(ctx context.Context, id string, status models.SubmissionStatus, notes string) (*models.Submission, error)
}

// Sender delivers replies. *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	service Moderation
	sender  Sender
	api     *tgbotapi.BotAPI
	admins  map[int64]bool
}

func New(token string, adminIDs []int64, service Moderation) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	b := NewWithSender(api, adminIDs, service)
	b.api = api
	return b, nil
}

func NewWithSender(sender Sender, adminIDs []int64, service Moderation) *Bot {
	admins := make(map[int64]bool)
	for _, id := range adminIDs {
		admins[id] = true
	}

	return &Bot{
		service: service,
		sender:  sender,
		admins:  admins,
	}
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return fmt.Errorf("bot has no telegram connection")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go b.handleMessage(ctx, update.Message)

		case <-ctx.Done():
			logger.Info.Println("Shutting down bot...")
			return nil
		}
	}
}
