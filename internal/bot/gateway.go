package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tubescribe.app/bot/common"
	"tubescribe.app/bot/common/logger"
	"tubescribe.app/bot/internal/store"
	"tubescribe.app/bot/internal/transcript"
)

// maxMessageLen is Telegram's hard cap on a single message.
const maxMessageLen = 4096

const welcomeText = "Hi! Send me a YouTube link and I'll summarize the video for you. " +
	"After that, ask me anything about it."

// Sender abstracts the Telegram client so handlers can be tested without the
// network.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Acquirer produces transcript text for a message containing a video link.
type Acquirer interface {
	Acquire(ctx context.Context, rawURL string) (transcript.Result, error)
}

// Conversations is the per-user context lifecycle the gateway drives.
type Conversations interface {
	SubmitVideo(ctx context.Context, userID, transcript string) (string, error)
	Ask(ctx context.Context, userID, question string) (string, error)
}

// Gateway routes Telegram updates: commands, video links, and follow-up
// questions. Each update runs in its own goroutine; a panic or failure in one
// handler never takes down the loop.
type Gateway struct {
	api     Sender
	store   store.Store
	videos  Acquirer
	conv    Conversations
	adminID int64
}

func NewGateway(api Sender, st store.Store, videos Acquirer, conv Conversations, adminID int64) *Gateway {
	return &Gateway{
		api:     api,
		store:   st,
		videos:  videos,
		conv:    conv,
		adminID: adminID,
	}
}

// Run consumes the update channel until it closes or the context is cancelled.
func (g *Gateway) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go g.handleUpdate(ctx, update)
		}
	}
}

func (g *Gateway) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "update handler panicked", "panic", r)
		}
	}()

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:    logger.Ptr(userID),
		Component: "bot.gateway",
	})

	switch {
	case msg.IsCommand():
		g.handleCommand(ctx, msg, userID)
	case isVideoRequest(msg.Text):
		g.handleVideo(ctx, msg, userID)
	default:
		g.handleQuestion(ctx, msg, userID)
	}
}

// isVideoRequest classifies a message as a video submission. Anything else is
// treated as a question against the active context.
func isVideoRequest(text string) bool {
	return strings.Contains(text, "youtube.com") || strings.Contains(text, "youtu.be")
}

func (g *Gateway) handleVideo(ctx context.Context, msg *tgbotapi.Message, userID string) {
	status, err := g.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "Watching video for you..."))
	if err != nil {
		slog.WarnContext(ctx, "status message failed", "error", err)
	}

	result, err := g.videos.Acquire(ctx, msg.Text)
	if err != nil {
		slog.WarnContext(ctx, "acquisition failed",
			"reason", transcript.ReasonOf(err),
			"error", err)
		g.editOrSend(ctx, msg.Chat.ID, status.MessageID, transcript.ReasonOf(err).UserMessage())
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{VideoID: logger.Ptr(result.VideoID)})

	summary, err := g.conv.SubmitVideo(ctx, userID, result.Text)
	if err != nil {
		slog.ErrorContext(ctx, "summary failed", "error", err)
		g.editOrSend(ctx, msg.Chat.ID, status.MessageID,
			"Sorry, I couldn't generate a summary right now. Please try again later.")
		return
	}

	chunks := messageChunks(common.SanitizeMarkup(summary))
	g.editOrSend(ctx, msg.Chat.ID, status.MessageID, chunks[0])
	for _, chunk := range chunks[1:] {
		g.send(ctx, msg.Chat.ID, chunk)
	}

	slog.InfoContext(ctx, "video summarized",
		"source", result.Source,
		"summary_chars", len(summary))
}

func (g *Gateway) handleQuestion(ctx context.Context, msg *tgbotapi.Message, userID string) {
	reply, err := g.conv.Ask(ctx, userID, msg.Text)
	if err != nil {
		slog.ErrorContext(ctx, "question failed", "error", err)
		g.send(ctx, msg.Chat.ID, "Sorry, I couldn't answer that right now. Please try again later.")
		return
	}

	for _, chunk := range messageChunks(common.SanitizeMarkup(reply)) {
		g.send(ctx, msg.Chat.ID, chunk)
	}
}

// send delivers markdown text, falling back to plain text when Telegram
// rejects the entities.
func (g *Gateway) send(ctx context.Context, chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := g.api.Send(out); err != nil {
		slog.WarnContext(ctx, "markdown send rejected, retrying plain", "error", err)
		if _, err := g.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			slog.ErrorContext(ctx, "send failed", "error", err)
		}
	}
}

// editOrSend replaces the status message when one exists, otherwise sends a
// fresh message.
func (g *Gateway) editOrSend(ctx context.Context, chatID int64, messageID int, text string) {
	if messageID == 0 {
		g.send(ctx, chatID, text)
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := g.api.Send(edit); err != nil {
		slog.WarnContext(ctx, "status edit rejected, retrying plain", "error", err)
		if _, err := g.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
			slog.ErrorContext(ctx, "status edit failed", "error", err)
			g.send(ctx, chatID, text)
		}
	}
}

// messageChunks splits text into Telegram-sized pieces, preferring newline
// boundaries. A hard cut never lands inside a multi-byte rune: Telegram
// rejects invalid UTF-8 payloads outright. Always returns at least one
// element.
func messageChunks(text string) []string {
	if len(text) <= maxMessageLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > maxMessageLen {
		cut := strings.LastIndexByte(text[:maxMessageLen], '\n')
		if cut <= 0 {
			cut = maxMessageLen
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxMessageLen
			}
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
