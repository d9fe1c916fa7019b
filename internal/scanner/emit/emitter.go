// Package emit publishes completed signals to downstream collaborators
// (Telegram, dashboard websocket, persistence). The engine only depends on
// the Emitter interface; everything signal-consuming lives behind it.
package emit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Vodeneev/livebet/internal/pkg/models"
)

type Emitter interface {
	Emit(ctx context.Context, signal *models.Signal) error
	Close()
}

// Fanout forwards every signal to all registered emitters. One failing sink
// never blocks the others.
type Fanout struct {
	emitters []Emitter
}

func NewFanout(emitters ...Emitter) *Fanout {
	return &Fanout{emitters: emitters}
}

func (f *Fanout) Add(e Emitter) {
	f.emitters = append(f.emitters, e)
}

func (f *Fanout) Emit(ctx context.Context, signal *models.Signal) error {
	var lastErr error
	for _, e := range f.emitters {
		if err := e.Emit(ctx, signal); err != nil {
			slog.Warn("Emitter failed, continuing with others",
				"match", signal.MatchName, "error", err)
			lastErr = err
		}
	}
	return lastErr
}

func (f *Fanout) Close() {
	for _, e := range f.emitters {
		e.Close()
	}
}

// LogEmitter writes each signal to the structured log. Always installed, so
// a run with no other sinks still leaves a trace of what fired.
type LogEmitter struct{}

func (LogEmitter) Emit(ctx context.Context, s *models.Signal) error {
	args := []interface{}{
		"match_id", s.MatchID,
		"match", s.MatchName,
		"reason", s.Reason,
		"main_market", s.MainMarket,
		"main_side", s.MainSide,
		"main_odds", s.MainOdds,
		"main_stake", s.MainStake,
		"pnl_a", s.PnL.A,
		"pnl_b", s.PnL.B,
		"pnl_d", s.PnL.D,
	}
	if s.HasHedge() {
		args = append(args,
			"hedge_market", *s.HedgeMarket,
			"hedge_side", *s.HedgeSide,
			"hedge_odds", *s.HedgeOdds,
			"hedge_stake", *s.HedgeStake,
		)
		if s.PnL.C != nil {
			args = append(args, "pnl_c", *s.PnL.C)
		}
	}
	slog.Info("Signal emitted", args...)
	return nil
}

func (LogEmitter) Close() {}

// Ring keeps the most recent signals in memory for the state server and the
// websocket replay.
type Ring struct {
	mu      sync.Mutex
	signals []models.Signal
	cap     int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 100
	}
	return &Ring{cap: capacity}
}

func (r *Ring) Emit(ctx context.Context, signal *models.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, *signal)
	if len(r.signals) > r.cap {
		r.signals = r.signals[len(r.signals)-r.cap:]
	}
	return nil
}

// Recent returns stored signals, newest first.
func (r *Ring) Recent() []models.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Signal, 0, len(r.signals))
	for i := len(r.signals) - 1; i >= 0; i-- {
		out = append(out, r.signals[i])
	}
	return out
}

func (r *Ring) Close() {}

// Deduper suppresses repeats of the same signal. The engine re-fires on
// every qualifying tick by design, so downstream sinks sit behind a cooldown
// keyed by match and main market; a noticeable odds move re-arms the key
// before the cooldown runs out.
type Deduper struct {
	next     Emitter
	cooldown time.Duration
	// odds move that re-arms a key early
	reArmOddsDelta float64

	mu   sync.Mutex
	seen map[string]dedupEntry
}

type dedupEntry struct {
	sentAt   time.Time
	mainOdds float64
}

func NewDeduper(next Emitter, cooldown time.Duration) *Deduper {
	if cooldown <= 0 {
		cooldown = 60 * time.Minute
	}
	return &Deduper{
		next:           next,
		cooldown:       cooldown,
		reArmOddsDelta: 0.10,
		seen:           make(map[string]dedupEntry),
	}
}

func (d *Deduper) Emit(ctx context.Context, signal *models.Signal) error {
	key := signal.MatchID + "|" + signal.MainMarket + "|" + signal.MainSide

	d.mu.Lock()
	entry, ok := d.seen[key]
	suppress := ok &&
		time.Since(entry.sentAt) < d.cooldown &&
		abs(signal.MainOdds-entry.mainOdds) < d.reArmOddsDelta
	if !suppress {
		d.seen[key] = dedupEntry{sentAt: time.Now(), mainOdds: signal.MainOdds}
	}
	d.mu.Unlock()

	if suppress {
		slog.Debug("Signal suppressed by cooldown", "match", signal.MatchName, "market", signal.MainMarket)
		return nil
	}
	return d.next.Emit(ctx, signal)
}

func (d *Deduper) Close() {
	d.next.Close()
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
