package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/kukucorn/ai-running-coach/internal/coach"
	"github.com/kukucorn/ai-running-coach/internal/config"
	"github.com/kukucorn/ai-running-coach/internal/delivery"
	"github.com/kukucorn/ai-running-coach/internal/llm"
	"github.com/kukucorn/ai-running-coach/internal/server"
	"github.com/kukucorn/ai-running-coach/internal/storage"
	"github.com/kukucorn/ai-running-coach/internal/telegram"
	"github.com/kukucorn/ai-running-coach/internal/transport"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	httpClient := transport.NewClient(transport.TimeoutsFrom(cfg))

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramBotToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		log.Fatalf("failed to create telegram client: %v", err)
	}
	bot.Debug = cfg.ClientDebug()

	llmClient, err := llm.NewFactory(cfg, httpClient).CreateClient(string(cfg.LLMProvider))
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}
	responder := coach.New(llmClient, readSystemPrompt(cfg.SystemPromptPath))

	store, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("failed to open %s storage: %v", cfg.DBDriver, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("failed to close storage: %v", err)
		}
	}()

	router := telegram.NewRouter(bot, responder, store, bot.Self.UserName)

	mode := delivery.ModePull
	if cfg.UsePush() {
		mode = delivery.ModePush
	}
	manager := delivery.New(bot, router, delivery.Options{
		Mode:              mode,
		WebhookURL:        cfg.WebhookURL(),
		ReconcileInterval: cfg.ReconcileInterval,
		PollTimeout:       cfg.PollTimeout,
		OnShutdown:        httpClient.CloseIdleConnections,
	})

	srv := server.New(router, server.Options{
		Addr:         cfg.ListenAddr,
		AppName:      cfg.AppName,
		Token:        cfg.TelegramBotToken,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the webhook route must be reachable before Telegram is told about it
	serveErr := srv.Start()
	if err := manager.Start(ctx); err != nil {
		shutdownServer(srv)
		log.Fatalf("failed to start delivery: %v", err)
	}
	log.Printf("%s started (%s, %s mode)", cfg.AppName, cfg.Environment, manager.Mode())

	select {
	case <-ctx.Done():
		log.Printf("Shutdown signal received")
	case err := <-serveErr:
		log.Printf("❌ %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := manager.Stop(stopCtx); err != nil {
		log.Printf("delivery stop: %v", err)
	}
	shutdownServer(srv)
	log.Printf("Bye 👋")
}

func shutdownServer(srv *server.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return string(data)
}
