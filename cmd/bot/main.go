package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tubescribe.app/bot/common/llm"
	"tubescribe.app/bot/common/logger"
	"tubescribe.app/bot/common/otel"
	"tubescribe.app/bot/core/config"
	"tubescribe.app/bot/internal/bot"
	"tubescribe.app/bot/internal/conversation"
	httprouter "tubescribe.app/bot/internal/http/router"
	"tubescribe.app/bot/internal/store"
	"tubescribe.app/bot/internal/summarize"
	"tubescribe.app/bot/internal/transcript"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "tubescribe starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	st := newStore(ctx, cfg)

	chain, err := llm.NewChain(cfg.Providers())
	if err != nil {
		slog.ErrorContext(ctx, "failed to build provider chain", "error", err)
		os.Exit(1)
	}

	composer := summarize.NewComposer(chain)
	manager := conversation.NewManager(st, chain, composer, cfg.Conversation.MaxTurns)

	videos := transcript.NewYouTubeService()
	recognizer := transcript.NewRecognizer(transcript.RecognizerConfig{
		Endpoint: cfg.Audio.Endpoint,
		APIKey:   cfg.Audio.APIKey,
		Model:    cfg.Audio.Model,
		Timeout:  cfg.Audio.Timeout,
	})
	audio := transcript.NewAudioFallback(videos, transcript.NewExecRunner(), recognizer, os.TempDir())
	acquirer := transcript.NewAcquirer(videos, transcript.NewCaptionFetcher(), audio)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to telegram", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "telegram connected", "bot", api.Self.UserName)

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30

	runCtx, stop := context.WithCancel(ctx)
	gateway := bot.NewGateway(api, st, acquirer, manager, cfg.Telegram.AdminUserID)
	go gateway.Run(runCtx, api.GetUpdatesChan(updateCfg))
	slog.InfoContext(ctx, "update loop started")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	httprouter.SetupRoutes(engine, st)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	api.StopReceivingUpdates()
	stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// newStore prefers redis when configured but never refuses to start: an
// unreachable redis degrades to the in-process store.
func newStore(ctx context.Context, cfg config.Config) store.Store {
	if !cfg.Redis.Enabled() {
		slog.InfoContext(ctx, "using in-memory store (no redis configured)")
		return store.NewMemory()
	}

	rds, err := store.NewRedis(ctx, cfg.Redis.URL)
	if err != nil {
		slog.WarnContext(ctx, "redis unreachable, falling back to in-memory store", "error", err)
		return store.NewMemory()
	}

	slog.InfoContext(ctx, "redis connected")
	return rds
}

const banner = `
████████╗██╗   ██╗██████╗ ███████╗███████╗ ██████╗██████╗ ██╗██████╗ ███████╗
╚══██╔══╝██║   ██║██╔══██╗██╔════╝██╔════╝██╔════╝██╔══██╗██║██╔══██╗██╔════╝
   ██║   ██║   ██║██████╔╝█████╗  ███████╗██║     ██████╔╝██║██████╔╝█████╗
   ██║   ██║   ██║██╔══██╗██╔══╝  ╚════██║██║     ██╔══██╗██║██╔══██╗██╔══╝
   ██║   ╚██████╔╝██████╔╝███████╗███████║╚██████╗██║  ██║██║██████╔╝███████╗
   ╚═╝    ╚═════╝ ╚═════╝ ╚══════╝╚══════╝ ╚═════╝╚═╝  ╚═╝╚═╝╚═════╝ ╚══════╝
`
