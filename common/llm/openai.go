package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openaiCompleter struct {
	client openai.Client
	model  string
	max    int
}

// newOpenAICompleter creates a Completer for any OpenAI-compatible endpoint.
// An empty API key is allowed: keyless public endpoints ignore the header.
func newOpenAICompleter(cfg Provider) (Completer, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &openaiCompleter{
		client: openai.NewClient(opts...),
		model:  model,
		max:    cfg.MaxTokens,
	}, nil
}

func (c *openaiCompleter) Complete(ctx context.Context, msgs []Message) (string, error) {
	maxTokens := c.max
	if maxTokens == 0 {
		maxTokens = 1500
	}

	params := openai.ChatCompletionNewParams{
		Model:     c.model,
		Messages:  c.convertMessages(msgs),
		MaxTokens: openai.Int(int64(maxTokens)),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *openaiCompleter) Model() string {
	return c.model
}

func (c *openaiCompleter) convertMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))

	for _, msg := range msgs {
		switch msg.Role {
		case "system":
			result = append(result, openai.SystemMessage(msg.Content))
		case "assistant":
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}

	return result
}
