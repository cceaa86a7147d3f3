package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"tubescribe.app/bot/common/llm"
)

type Config struct {
	Telegram     TelegramConfig
	Redis        RedisConfig
	HostedLLM    LLMConfig
	AnthropicLLM LLMConfig
	PublicLLM    LLMConfig
	Audio        AudioConfig
	Conversation ConversationConfig
	OTel         OTelConfig
	Env          string
	Port         string
}

type TelegramConfig struct {
	BotToken    string
	AdminUserID int64
}

type RedisConfig struct {
	URL string
}

type LLMConfig struct {
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// AudioConfig points at the OpenAI-compatible endpoint used for
// speech-to-text over downloaded audio.
type AudioConfig struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

type ConversationConfig struct {
	// MaxTurns caps stored history length per user. 0 keeps the original
	// unbounded behavior; the transcript seed is never trimmed.
	MaxTurns int
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// DefaultPublicEndpoint is the keyless OpenAI-compatible endpoint used when no
// hosted provider key is supplied, and as the last link of the fallback chain.
const DefaultPublicEndpoint = "https://text.pollinations.ai/openai"

// Load loads configuration from environment variables. In development it reads
// .env first so local runs need no exported variables.
func Load() (Config, error) {
	if getEnv("BOT_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env:  getEnv("BOT_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		Telegram: TelegramConfig{
			BotToken:    getEnv("BOT_TOKEN", ""),
			AdminUserID: getEnvInt64("AUTH_USER_ID", 0),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		HostedLLM: LLMConfig{
			APIKey:    getEnv("LLM_API_KEY", ""),
			BaseURL:   getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:     getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 1500),
			Timeout:   getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},
		AnthropicLLM: LLMConfig{
			APIKey:    getEnv("ANTHROPIC_API_KEY", ""),
			BaseURL:   getEnv("ANTHROPIC_BASE_URL", ""),
			Model:     getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 1500),
			Timeout:   getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},
		PublicLLM: LLMConfig{
			BaseURL:   getEnv("PUBLIC_LLM_BASE_URL", DefaultPublicEndpoint),
			Model:     getEnv("PUBLIC_LLM_MODEL", "openai"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 1500),
			Timeout:   getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Audio: AudioConfig{
			Endpoint: getEnv("AUDIO_ENDPOINT", DefaultPublicEndpoint),
			APIKey:   getEnv("AUDIO_API_KEY", ""),
			Model:    getEnv("AUDIO_MODEL", "openai-audio"),
			Timeout:  getEnvDuration("AUDIO_TIMEOUT", 120*time.Second),
		},
		Conversation: ConversationConfig{
			MaxTurns: getEnvInt("CONVERSATION_MAX_TURNS", 0),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "tubescribe"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
	}

	if cfg.Telegram.BotToken == "" {
		return Config{}, fmt.Errorf("BOT_TOKEN is required")
	}

	return cfg, nil
}

// Providers assembles the ordered provider preference list: the hosted keyed
// endpoint first when configured, then Anthropic when keyed, and always the
// keyless public endpoint last.
func (c Config) Providers() []llm.Provider {
	var providers []llm.Provider

	if c.HostedLLM.APIKey != "" {
		providers = append(providers, llm.Provider{
			Name:      "hosted",
			Kind:      llm.KindOpenAI,
			APIKey:    c.HostedLLM.APIKey,
			BaseURL:   c.HostedLLM.BaseURL,
			Model:     c.HostedLLM.Model,
			MaxTokens: c.HostedLLM.MaxTokens,
			Timeout:   c.HostedLLM.Timeout,
		})
	}

	if c.AnthropicLLM.APIKey != "" {
		providers = append(providers, llm.Provider{
			Name:      "anthropic",
			Kind:      llm.KindAnthropic,
			APIKey:    c.AnthropicLLM.APIKey,
			BaseURL:   c.AnthropicLLM.BaseURL,
			Model:     c.AnthropicLLM.Model,
			MaxTokens: c.AnthropicLLM.MaxTokens,
			Timeout:   c.AnthropicLLM.Timeout,
		})
	}

	providers = append(providers, llm.Provider{
		Name:      "public",
		Kind:      llm.KindOpenAI,
		BaseURL:   c.PublicLLM.BaseURL,
		Model:     c.PublicLLM.Model,
		MaxTokens: c.PublicLLM.MaxTokens,
		Timeout:   c.PublicLLM.Timeout,
	})

	return providers
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
