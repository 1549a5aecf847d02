package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/app"
	"github.com/shrimpsizemoose/gitaguru/internal/models"
)

const (
	defaultPendingLimit = 10
	dateFormat          = "2006-01-02 15:04"

	learnerHelp = `Available commands:
/chapters - List chapters
/help - Show this message`

	moderatorHelp = `Available commands:
/chapters - List chapters
/pending [limit] - Submissions waiting for review, newest first
/show <id> - Show a submission
/review <id> <status> [notes...] - Set the status of a submission
/help - Show this message

Statuses: Submitted, Approved, Rejected, NeedsRevision

Examples:
/pending 5
/review 3f0c... Approved Clear pronunciation
/review 3f0c... NeedsRevision Please recite the second line again`
)

type commandHandler func(context.Context, *tgbotapi.Message) error

func (b *Bot) routeLearnerCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start":    b.handleStart,
		"help":     b.handleHelp,
		"chapters": b.handleChapters,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeModeratorCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"pending": b.handlePending,
		"show":    b.handleShow,
		"review":  b.handleReview,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) isModerator(msg *tgbotapi.Message) bool {
	return msg.From != nil && b.admins[msg.From.ID]
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()

	if handler, ok := b.routeLearnerCommands(cmd); ok {
		b.run(ctx, handler, msg)
		return
	}

	if b.isModerator(msg) {
		if handler, ok := b.routeModeratorCommands(cmd); ok {
			b.run(ctx, handler, msg)
			return
		}
	}

	b.sendHelp(msg.Chat.ID)
}

func (b *Bot) run(ctx context.Context, handler commandHandler, msg *tgbotapi.Message) {
	if err := handler(ctx, msg); err != nil {
		logger.Error.Printf("Command error: %v", err)
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
	}
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message) error {
	text := learnerHelp
	if b.isModerator(msg) {
		text = moderatorHelp
	}
	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Use commands to talk to the bot. Send /help for the list.")
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	text := "Namaste! I keep track of sloka recitations.\n\n"
	if b.isModerator(msg) {
		text += "You are a moderator. Use /pending to see what needs review."
	} else {
		text += "Use /chapters to see what can be learned."
	}
	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleChapters(ctx context.Context, msg *tgbotapi.Message) error {
	chapters, err := b.service.ListChapters(ctx)
	if err != nil {
		return fmt.Errorf("failed to list chapters: %w", err)
	}
	if len(chapters) == 0 {
		return b.sendMessage(msg.Chat.ID, "No chapters yet")
	}

	var out strings.Builder
	out.WriteString("Chapters:\n\n")
	for _, ch := range chapters {
		out.WriteString(fmt.Sprintf("📖 %d. %s\n", ch.ChapterNumber, ch.ChapterName))
	}
	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) handlePending(ctx context.Context, msg *tgbotapi.Message) error {
	limit := defaultPendingLimit
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return fmt.Errorf("limit must be a positive number: /pending 5")
		}
		limit = n
	}

	pending, err := b.service.ListSubmissions(ctx, app.SubmissionQuery{
		Status: string(models.StatusSubmitted),
		Limit:  limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list pending submissions: %w", err)
	}
	if len(pending) == 0 {
		return b.sendMessage(msg.Chat.ID, "Nothing to review 🙏")
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("Pending submissions (%d):\n\n", len(pending)))
	for _, s := range pending {
		out.WriteString(fmt.Sprintf("🎧 %s\n👤 %s <%s>\n📜 verse %s, %s UTC\n\n",
			s.ID,
			deref(s.UserName),
			deref(s.UserEmail),
			verseNumber(s.VerseNumber),
			s.CreatedAt.UTC().Format(dateFormat),
		))
	}
	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) handleShow(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return fmt.Errorf("usage: /show <id>")
	}

	s, err := b.service.GetSubmission(ctx, args[0])
	if err != nil {
		return fmt.Errorf("submission %s: %w", args[0], err)
	}
	return b.sendMessage(msg.Chat.ID, formatSubmission(s))
}

func (b *Bot) handleReview(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		return fmt.Errorf("usage: /review <id> <status> [notes...]")
	}

	status, ok := parseStatus(args[1])
	if !ok {
		return fmt.Errorf("unknown status %q, use one of %v", args[1], models.KnownStatuses())
	}
	notes := strings.Join(args[2:], " ")

	s, err := b.service.ReviewSubmission(ctx, args[0], status, notes)
	if err != nil {
		return fmt.Errorf("failed to review %s: %w", args[0], err)
	}

	logger.Info.Printf("Moderator %d set %s to %s", msg.From.ID, s.ID, s.Status)
	return b.sendMessage(msg.Chat.ID, "✅ Updated\n\n"+formatSubmission(s))
}

func parseStatus(raw string) (models.SubmissionStatus, bool) {
	for _, s := range models.KnownStatuses() {
		if strings.EqualFold(string(s), raw) {
			return s, true
		}
	}
	return "", false
}

func formatSubmission(s *models.Submission) string {
	var out strings.Builder
	out.WriteString(fmt.Sprintf("🎧 %s\nStatus: %s\nSubmitted: %s UTC\nUpdated: %s UTC\n",
		s.ID,
		s.Status,
		s.CreatedAt.UTC().Format(dateFormat),
		s.UpdatedAt.UTC().Format(dateFormat),
	))
	if s.RecitationAudioURL != nil {
		out.WriteString("Recitation: " + *s.RecitationAudioURL + "\n")
	}
	if s.ExplanationAudioURL != nil {
		out.WriteString("Explanation: " + *s.ExplanationAudioURL + "\n")
	}
	if s.AdminNotes != nil {
		out.WriteString("Notes: " + *s.AdminNotes + "\n")
	}
	return out.String()
}

func deref(s *string) string {
	if s == nil {
		return "?"
	}
	return *s
}

func verseNumber(n *int) string {
	if n == nil {
		return "?"
	}
	return strconv.Itoa(*n)
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.sender.Send(msg)
	return err
}
