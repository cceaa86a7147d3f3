package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tubescribe.app/bot/common"
	"tubescribe.app/bot/internal/store"
)

func (g *Gateway) handleCommand(ctx context.Context, msg *tgbotapi.Message, userID string) {
	switch msg.Command() {
	case "start":
		g.store.AddMember(ctx, store.UserSetKey, userID)
		slog.InfoContext(ctx, "user registered")
		g.send(ctx, msg.Chat.ID, welcomeText)

	case "users":
		if !g.isAdmin(msg.From.ID) {
			return
		}
		count := len(g.store.AllMembers(ctx, store.UserSetKey))
		g.send(ctx, msg.Chat.ID, fmt.Sprintf("Registered users: %d", count))

	case "bcast":
		if !g.isAdmin(msg.From.ID) {
			return
		}
		text := broadcastText(msg)
		if text == "" {
			g.send(ctx, msg.Chat.ID, "Usage: /bcast <text>, or reply to the message to broadcast.")
			return
		}
		ok, failed := g.Broadcast(ctx, text)
		g.send(ctx, msg.Chat.ID, fmt.Sprintf("Broadcast complete: %d delivered, %d failed.", ok, failed))

	default:
		g.send(ctx, msg.Chat.ID, "Unknown command.")
	}
}

// broadcastText resolves the payload: the command argument, or the replied-to
// message when the admin replies with a bare /bcast.
func broadcastText(msg *tgbotapi.Message) string {
	if args := msg.CommandArguments(); args != "" {
		return args
	}
	if msg.ReplyToMessage != nil {
		return msg.ReplyToMessage.Text
	}
	return ""
}

// Broadcast walks every registered user sequentially and reports a delivery
// tally. Individual send failures are logged and counted, never fatal, and
// never abort the walk.
func (g *Gateway) Broadcast(ctx context.Context, text string) (delivered, failed int) {
	text = common.SanitizeMarkup(text)

	for _, id := range g.store.AllMembers(ctx, store.UserSetKey) {
		chatID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			slog.WarnContext(ctx, "broadcast skipping malformed user id", "id", id)
			failed++
			continue
		}

		out := tgbotapi.NewMessage(chatID, text)
		out.ParseMode = tgbotapi.ModeMarkdown
		if _, err := g.api.Send(out); err != nil {
			slog.WarnContext(ctx, "broadcast send failed", "chat_id", chatID, "error", err)
			failed++
			continue
		}
		delivered++
	}

	slog.InfoContext(ctx, "broadcast finished", "delivered", delivered, "failed", failed)
	return delivered, failed
}

func (g *Gateway) isAdmin(id int64) bool {
	return g.adminID != 0 && id == g.adminID
}
