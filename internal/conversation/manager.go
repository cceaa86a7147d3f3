package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"tubescribe.app/bot/common/llm"
	"tubescribe.app/bot/common/logger"
	"tubescribe.app/bot/internal/model"
	"tubescribe.app/bot/internal/store"
	"tubescribe.app/bot/internal/summarize"
)

// NoContextReply is the fixed advisory returned for questions asked before any
// video has been submitted. No LLM call is made in that case.
const NoContextReply = "Please provide a YouTube video first to establish context."

// seedTurns is how many leading turns form the context seed: the system
// transcript turn and the assistant summary turn. They are never trimmed.
const seedTurns = 2

// Chain is the provider fallback chain used for Q&A calls.
type Chain interface {
	Complete(ctx context.Context, msgs []llm.Message) (string, error)
}

// Summarizer composes the summary seeded on video submission.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Manager owns the per-user conversational context lifecycle. Submitting a
// video discards any prior context for that user and seeds a fresh one;
// questions replay the stored context to the LLM.
//
// History mutations for one user are serialized through a per-user lock, so
// reset+seed and Q/A appends are atomic units with respect to other
// operations on the same user. Different users proceed independently.
type Manager struct {
	store      store.Store
	chain      Chain
	summarizer Summarizer

	// maxTurns caps stored history length; 0 means unbounded (original
	// behavior). Seed turns are never dropped.
	maxTurns int

	locks sync.Map // userID -> *sync.Mutex
}

func NewManager(st store.Store, chain Chain, summarizer Summarizer, maxTurns int) *Manager {
	return &Manager{
		store:      st,
		chain:      chain,
		summarizer: summarizer,
		maxTurns:   maxTurns,
	}
}

// SubmitVideo composes a summary for the transcript, then atomically replaces
// the user's context with the transcript seed and the summary turn. On
// composition failure the prior context is left untouched.
func (m *Manager) SubmitVideo(ctx context.Context, userID, transcript string) (string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:    logger.Ptr(userID),
		Component: "conversation.manager",
	})

	mu := m.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	summary, err := m.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return "", fmt.Errorf("seed conversation: %w", err)
	}

	m.store.ResetHistory(ctx, userID)
	m.store.AppendHistory(ctx, userID, model.SystemTurn("Video Transcript:\n"+transcript))
	m.store.AppendHistory(ctx, userID, model.AssistantTurn("Video Summary:\n"+summary))

	slog.InfoContext(ctx, "conversation reseeded", "transcript_chars", len(transcript))
	return summary, nil
}

// Ask answers a follow-up question strictly from the stored context. Without
// prior context it returns the fixed advisory and performs no LLM call.
func (m *Manager) Ask(ctx context.Context, userID, question string) (string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:    logger.Ptr(userID),
		Component: "conversation.manager",
	})

	mu := m.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	history := m.store.History(ctx, userID)
	if len(history) == 0 {
		slog.DebugContext(ctx, "question without active context")
		return NoContextReply, nil
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: model.RoleSystem, Content: summarize.PersonaPrompt})
	for _, turn := range history {
		msgs = append(msgs, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	msgs = append(msgs, llm.Message{Role: model.RoleUser, Content: groundedQuestion(question)})

	slog.DebugContext(ctx, "replaying context",
		"turns", len(history),
		"question", logger.Truncate(question, 120))

	reply, err := m.chain.Complete(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}

	m.appendBounded(ctx, userID, history,
		model.UserTurn(question),
		model.AssistantTurn(reply))

	return reply, nil
}

// HasContext reports whether the user currently has an active video context.
func (m *Manager) HasContext(ctx context.Context, userID string) bool {
	return len(m.store.History(ctx, userID)) > 0
}

// appendBounded appends turns, trimming the oldest non-seed turns when a
// history cap is configured. Caller holds the user lock.
func (m *Manager) appendBounded(ctx context.Context, userID string, history []model.ChatTurn, turns ...model.ChatTurn) {
	if m.maxTurns <= 0 || len(history)+len(turns) <= m.maxTurns {
		for _, t := range turns {
			m.store.AppendHistory(ctx, userID, t)
		}
		return
	}

	merged := append(append([]model.ChatTurn{}, history...), turns...)
	keep := m.maxTurns - seedTurns
	if keep < len(turns) {
		keep = len(turns)
	}
	trimmed := append(merged[:seedTurns:seedTurns], merged[len(merged)-keep:]...)

	slog.DebugContext(ctx, "history trimmed",
		"dropped", len(merged)-len(trimmed),
		"kept", len(trimmed))

	m.store.ResetHistory(ctx, userID)
	for _, t := range trimmed {
		m.store.AppendHistory(ctx, userID, t)
	}
}

func (m *Manager) userLock(userID string) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func groundedQuestion(question string) string {
	return fmt.Sprintf(
		"Regarding the video we're discussing: %s\n"+
			"Important: Only use information from the video transcript/summary. "+
			"If unsure or information isn't available, say so explicitly.",
		question)
}
