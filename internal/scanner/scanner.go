// Package scanner wires the live pipeline together: one feed transport, one
// consumer goroutine draining payloads through the normalizer into the match
// store, one strategy evaluation per snapshot, signals out through the
// emitter. The single consumer preserves the single-writer discipline on the
// store; readers (HTTP state server, emitters) go through its own locking.
package scanner

import (
	"context"
	"log/slog"
	"time"

	"github.com/Vodeneev/livebet/internal/pkg/models"
	"github.com/Vodeneev/livebet/internal/pkg/storage"
	"github.com/Vodeneev/livebet/internal/scanner/emit"
	"github.com/Vodeneev/livebet/internal/scanner/ingest"
	"github.com/Vodeneev/livebet/internal/scanner/store"
	"github.com/Vodeneev/livebet/internal/scanner/strategy"
)

// Engine is one strategy evaluated per upserted snapshot. history is the
// stored match history with the snapshot as its newest entry.
type Engine interface {
	Evaluate(snap *models.MatchSnapshot, history []models.MatchSnapshot) *models.Signal
}

// FavoriteEngine adapts the stateless checklist to the per-snapshot loop.
type FavoriteEngine struct {
	Checklist *strategy.Favorite
}

func (e FavoriteEngine) Evaluate(snap *models.MatchSnapshot, _ []models.MatchSnapshot) *models.Signal {
	if snap.Status != models.StatusLive {
		return nil
	}
	return e.Checklist.Evaluate(snap)
}

type Scanner struct {
	feed    ingest.Feed
	store   *store.MatchStore
	engine  Engine
	emitter emit.Emitter

	// optional: latest-snapshot cache for the external dashboard
	cache *storage.RedisCache
}

func New(feed ingest.Feed, matchStore *store.MatchStore, engine Engine, emitter emit.Emitter, cache *storage.RedisCache) *Scanner {
	return &Scanner{
		feed:    feed,
		store:   matchStore,
		engine:  engine,
		emitter: emitter,
		cache:   cache,
	}
}

// Run starts the feed and drains its payloads until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	feedErr := make(chan error, 1)
	go func() {
		feedErr <- s.feed.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-feedErr:
			return err
		case payload := <-s.feed.Payloads():
			s.consume(ctx, payload)
		}
	}
}

func (s *Scanner) consume(ctx context.Context, payload ingest.RawPayload) {
	snapshots := ingest.Normalize(payload.Body, time.Now().UTC())
	s.feed.NoteBatch(len(snapshots))
	if len(snapshots) == 0 {
		return
	}
	slog.Debug("Scanner: payload normalized", "source", payload.Source, "matches", len(snapshots))

	for i := range snapshots {
		snap := &snapshots[i]
		s.store.Upsert(*snap)

		if s.cache != nil {
			if err := s.cache.StoreSnapshot(ctx, snap); err != nil {
				slog.Warn("Scanner: snapshot cache write failed", "match_id", snap.MatchID, "error", err)
			}
		}

		signal := s.engine.Evaluate(snap, s.store.History(snap.MatchID))
		if signal == nil {
			continue
		}
		slog.Info("Scanner: signal detected",
			"match", signal.MatchName,
			"reason", signal.Reason,
			"main_market", signal.MainMarket,
			"main_odds", signal.MainOdds)
		if err := s.emitter.Emit(ctx, signal); err != nil {
			slog.Warn("Scanner: emit failed", "match", signal.MatchName, "error", err)
		}
	}
}
