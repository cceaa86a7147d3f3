package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider kinds for chain entries.
const (
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
)

// DefaultTimeout bounds a single provider attempt when the descriptor does not
// set one. A timeout is a failed attempt, not a fatal error.
const DefaultTimeout = 60 * time.Second

// Message represents a conversation message replayed to a provider.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string // Text content
}

// Provider describes one backend in the ordered fallback chain:
// an endpoint, a key (or none for keyless public endpoints), and a model name.
type Provider struct {
	Name      string // Label used in logs and attempt errors
	Kind      string // "openai" (any OpenAI-compatible endpoint) or "anthropic"
	APIKey    string // Empty for keyless endpoints
	BaseURL   string // Empty means the provider SDK default
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Completer is a single provider's chat call. Implementations return the raw
// response text; emptiness and fallback are the chain's concern.
type Completer interface {
	Complete(ctx context.Context, msgs []Message) (string, error)
	Model() string
}

// ErrEmptyResponse reports a provider that answered with no usable text.
var ErrEmptyResponse = errors.New("llm: empty response")

// AllProvidersError is returned when every provider in the chain failed.
// It keeps the per-attempt errors for observability.
type AllProvidersError struct {
	Attempts []AttemptError
}

type AttemptError struct {
	Provider string
	Err      error
}

func (e *AllProvidersError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Provider, a.Err)
	}
	return "llm: all providers exhausted: " + strings.Join(parts, "; ")
}

func (e *AllProvidersError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}
