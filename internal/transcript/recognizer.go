package transcript

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// RecognizerConfig points at an OpenAI-compatible endpoint that accepts
// input_audio chat content.
type RecognizerConfig struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

type speechRecognizer struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewRecognizer returns a Recognizer that ships the audio file inline
// (base64) to the configured endpoint. The endpoint only accepts mp3 and wav
// payloads; anything else is rejected before upload.
func NewRecognizer(cfg RecognizerConfig) Recognizer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &speechRecognizer{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: timeout,
	}
}

func (r *speechRecognizer) Recognize(ctx context.Context, audioPath string) (string, error) {
	format := strings.TrimPrefix(filepath.Ext(audioPath), ".")
	if format != "mp3" && format != "wav" {
		return "", acquireErr(ReasonUnsupportedAudioFormat,
			fmt.Errorf("audio format %q not supported by recognizer", format))
	}

	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("read audio file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: r.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
							openai.TextContentPart("Transcribe this audio"),
							openai.InputAudioContentPart(openai.ChatCompletionContentPartInputAudioInputAudioParam{
								Data:   base64.StdEncoding.EncodeToString(data),
								Format: format,
							}),
						},
					},
				},
			},
		},
	}

	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("speech-to-text request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("speech-to-text: no choices in response")
	}

	return resp.Choices[0].Message.Content, nil
}
