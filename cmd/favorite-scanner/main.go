package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vodeneev/livebet/internal/pkg/config"
	"github.com/Vodeneev/livebet/internal/pkg/health"
	"github.com/Vodeneev/livebet/internal/pkg/logging"
	"github.com/Vodeneev/livebet/internal/scanner"
	"github.com/Vodeneev/livebet/internal/scanner/emit"
	"github.com/Vodeneev/livebet/internal/scanner/ingest"
	"github.com/Vodeneev/livebet/internal/scanner/store"
	"github.com/Vodeneev/livebet/internal/scanner/strategy"
)

// The favorite scanner runs the stateless checklist against the same
// ingestion pipeline as the momentum scanner, as its own process so both can
// watch different feeds independently.
func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/local.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if _, err := logging.Setup(&cfg.Logging, "favorite-scanner"); err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping favorite scanner")
		cancel()
	}()

	matchStore := store.New()
	favorite := strategy.NewFavorite(cfg.Favorite)

	feed, err := ingest.NewFeed(&cfg.Scanner)
	if err != nil {
		log.Fatalf("Failed to create feed: %v", err)
	}

	ring := emit.NewRing(100)
	fanout := emit.NewFanout(emit.LogEmitter{}, ring)

	if cfg.Telegram.BotToken != "" {
		telegram, err := emit.NewTelegramEmitter(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			slog.Error("Telegram emitter unavailable, continuing without it", "error", err)
		} else {
			cooldown := time.Duration(cfg.Telegram.CooldownMinutes) * time.Minute
			fanout.Add(emit.NewDeduper(telegram, cooldown))
		}
	}
	defer fanout.Close()

	if cfg.HTTP.Port > 0 {
		health.Run(ctx, health.AddrFor(cfg.HTTP.Port), cfg.HTTP.ReadHeaderTimeout, health.Options{
			Service:  "favorite-scanner",
			Store:    matchStore,
			Ring:     ring,
			Favorite: favorite,
		})
	}

	slog.Info("Starting favorite scanner",
		"transport", cfg.Scanner.Transport,
		"feed_url", cfg.Scanner.FeedURL,
		"max_favorite_odds", cfg.Favorite.MaxFavoriteOdds,
		"min_set_winner_odds", cfg.Favorite.MinSetWinnerOdds)

	s := scanner.New(feed, matchStore, scanner.FavoriteEngine{Checklist: favorite}, fanout, nil)
	if err := s.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("Favorite scanner stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Favorite scanner stopped")
}
