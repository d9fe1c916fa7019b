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
	"github.com/Vodeneev/livebet/internal/pkg/storage"
	"github.com/Vodeneev/livebet/internal/scanner"
	"github.com/Vodeneev/livebet/internal/scanner/emit"
	"github.com/Vodeneev/livebet/internal/scanner/ingest"
	"github.com/Vodeneev/livebet/internal/scanner/store"
	"github.com/Vodeneev/livebet/internal/scanner/strategy"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/local.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if _, err := logging.Setup(&cfg.Logging, "live-scanner"); err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping scanner")
		cancel()
	}()

	matchStore := store.New()
	momentum := strategy.NewMomentum(cfg.Strategy)

	feed, err := ingest.NewFeed(&cfg.Scanner)
	if err != nil {
		log.Fatalf("Failed to create feed: %v", err)
	}

	ring := emit.NewRing(100)
	hub := emit.NewWSHub(ring)
	fanout := emit.NewFanout(emit.LogEmitter{}, ring, hub)

	if cfg.Telegram.BotToken != "" {
		telegram, err := emit.NewTelegramEmitter(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			slog.Error("Telegram emitter unavailable, continuing without it", "error", err)
		} else {
			cooldown := time.Duration(cfg.Telegram.CooldownMinutes) * time.Minute
			fanout.Add(emit.NewDeduper(telegram, cooldown))
		}
	}

	if cfg.Postgres.DSN != "" {
		pg, err := storage.NewPostgresSignalStorage(&cfg.Postgres)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer pg.Close()
		fanout.Add(emit.NewSinkEmitter("postgres", pg))
	}

	var cache *storage.RedisCache
	if cfg.Redis.Addr != "" {
		cache, err = storage.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer cache.Close()
		fanout.Add(emit.NewSinkEmitter("redis", cache))
	}
	defer fanout.Close()

	if cfg.HTTP.Port > 0 {
		health.Run(ctx, health.AddrFor(cfg.HTTP.Port), cfg.HTTP.ReadHeaderTimeout, health.Options{
			Service:  "live-scanner",
			Store:    matchStore,
			Ring:     ring,
			Hub:      hub,
			Momentum: momentum,
		})
	}

	slog.Info("Starting live scanner",
		"transport", cfg.Scanner.Transport,
		"feed_url", cfg.Scanner.FeedURL,
		"diff_band", []int{cfg.Strategy.MinDiff, cfg.Strategy.MaxDiff},
		"momentum_window", cfg.Strategy.MomentumWindow)

	s := scanner.New(feed, matchStore, momentum, fanout, cache)
	if err := s.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("Scanner stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Scanner stopped")
}
