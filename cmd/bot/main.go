package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"photofeed/internal/auth"
	"photofeed/internal/bot"
	"photofeed/internal/config"
	"photofeed/internal/profile"
	"photofeed/internal/storage"
	"photofeed/internal/unsplash"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	httpClient := &http.Client{Timeout: 30 * time.Second}

	authn := auth.New(auth.Config{
		AccessKey:   cfg.Unsplash.AccessKey,
		SecretKey:   cfg.Unsplash.SecretKey,
		RedirectURI: cfg.Unsplash.RedirectURI,
		Scope:       cfg.Unsplash.Scope,
		AuthBaseURL: cfg.Unsplash.AuthURL,
	}, store, httpClient)

	newClient := func(chatID int64) bot.PhotoAPI {
		return unsplash.New(httpClient, cfg.Unsplash.APIURL, unsplash.AuthorizerFunc(func(ctx context.Context) (string, error) {
			return authn.Header(ctx, chatID)
		}))
	}

	b, err := bot.New(cfg.TelegramBotToken, authn, profile.New(store, log), newClient, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot", "api", cfg.Unsplash.APIURL, "page_size", cfg.PageSize)

	b.Run(ctx)

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
