package summarize

import (
	"context"
	"fmt"
	"log/slog"

	"tubescribe.app/bot/common/llm"
	"tubescribe.app/bot/common/logger"
	"tubescribe.app/bot/internal/model"
)

// Chain is the provider fallback chain the composer routes calls through.
type Chain interface {
	Complete(ctx context.Context, msgs []llm.Message) (string, error)
}

// Composer turns acquired transcript text into a structured summary.
// It does not interpret the model's output beyond non-emptiness (enforced by
// the chain); a non-empty response is returned verbatim.
type Composer struct {
	chain Chain
}

func NewComposer(chain Chain) *Composer {
	return &Composer{chain: chain}
}

func (c *Composer) Summarize(ctx context.Context, transcript string) (string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "summarize.composer"})

	msgs := []llm.Message{
		{Role: model.RoleSystem, Content: PersonaPrompt},
		{Role: model.RoleUser, Content: summaryPrompt + "\n\nVideo Transcript:\n" + transcript},
	}

	summary, err := c.chain.Complete(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("compose summary: %w", err)
	}

	slog.DebugContext(ctx, "summary composed",
		"transcript_chars", len(transcript),
		"summary_chars", len(summary))
	return summary, nil
}
