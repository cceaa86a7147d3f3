package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Chain walks an ordered list of providers and returns the first successful
// non-empty response. Every attempt gets its own timeout; failures are captured
// rather than propagated so a later provider can still serve the call.
type Chain struct {
	entries []Entry
}

// Entry pairs a provider label with its completer. Exposed so tests can build
// chains from fakes.
type Entry struct {
	Name      string
	Timeout   time.Duration
	Completer Completer
}

// NewChain builds a chain from provider descriptors, constructing one client
// per descriptor. At least one provider is required.
func NewChain(providers []Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("llm: no providers configured")
	}

	entries := make([]Entry, 0, len(providers))
	for _, p := range providers {
		var (
			c   Completer
			err error
		)
		switch p.Kind {
		case KindOpenAI:
			c, err = newOpenAICompleter(p)
		case KindAnthropic:
			c, err = newAnthropicCompleter(p)
		default:
			err = fmt.Errorf("unsupported provider kind: %s", p.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("llm: provider %s: %w", p.Name, err)
		}

		timeout := p.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		entries = append(entries, Entry{Name: p.Name, Timeout: timeout, Completer: c})
	}

	return &Chain{entries: entries}, nil
}

// NewChainEntries builds a chain from prebuilt entries.
func NewChainEntries(entries ...Entry) *Chain {
	return &Chain{entries: entries}
}

// Complete issues the message sequence to the providers in priority order and
// short-circuits on the first non-empty response. When every provider fails or
// answers empty, the per-attempt errors are returned as *AllProvidersError.
func (c *Chain) Complete(ctx context.Context, msgs []Message) (string, error) {
	var attempts []AttemptError

	for _, e := range c.entries {
		timeout := e.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)

		start := time.Now()
		text, err := e.Completer.Complete(attemptCtx, msgs)
		cancel()

		if err == nil && text == "" {
			err = ErrEmptyResponse
		}
		if err != nil {
			slog.WarnContext(ctx, "llm provider attempt failed",
				"provider", e.Name,
				"model", e.Completer.Model(),
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err)
			attempts = append(attempts, AttemptError{Provider: e.Name, Err: err})
			continue
		}

		slog.DebugContext(ctx, "llm provider attempt succeeded",
			"provider", e.Name,
			"model", e.Completer.Model(),
			"duration_ms", time.Since(start).Milliseconds())
		return text, nil
	}

	return "", &AllProvidersError{Attempts: attempts}
}
