package strategy

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Vodeneev/livebet/internal/pkg/config"
	"github.com/Vodeneev/livebet/internal/pkg/models"
	"github.com/Vodeneev/livebet/internal/scanner/payout"
)

// Momentum is the reversal strategy: a trailing side that has been closing
// the gap inside the diff band is backed against the current leader.
//
// Per match and tick the evaluation walks NOT_CANDIDATE -> CANDIDATE (live,
// not end of set, diff in band, momentum evidence) -> SIGNALED (qualifying
// main market found). There is no cross-tick suppression: the next tick
// starts over, duplicate signals are the emitter's problem.
//
// The config is replaced wholesale via an atomic pointer; Evaluate loads it
// once up front so an operator settings update can never tear an in-flight
// evaluation.
type Momentum struct {
	cfg atomic.Pointer[config.StrategyConfig]
}

func NewMomentum(cfg config.StrategyConfig) *Momentum {
	m := &Momentum{}
	m.cfg.Store(&cfg)
	return m
}

// Config returns the currently active parameter set.
func (m *Momentum) Config() config.StrategyConfig {
	return *m.cfg.Load()
}

// ReplaceConfig swaps in a new parameter set after validating it.
// In-flight evaluations keep the set they started with.
func (m *Momentum) ReplaceConfig(cfg config.StrategyConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.cfg.Store(&cfg)
	return nil
}

// Evaluate runs one tick for a match. history is the stored history with
// snap as its most recent entry. Returns nil when this tick produces no
// signal, which covers both "pattern absent" and "no qualifying market".
func (m *Momentum) Evaluate(snap *models.MatchSnapshot, history []models.MatchSnapshot) *models.Signal {
	cfg := m.cfg.Load()

	if snap.Status != models.StatusLive {
		return nil
	}
	if !NotEndOfSet(snap.CurrentSet) {
		return nil
	}
	diff, leader := Diff(snap.CurrentSet)
	if leader == LeaderNone || diff < cfg.MinDiff || diff > cfg.MaxDiff {
		return nil
	}
	priorDiff, ok := momentumEvidence(history, diff, leader, cfg)
	if !ok {
		return nil
	}

	// CANDIDATE: back the trailing side.
	trailing := leader.Opponent()
	main, ok := findMainMarket(snap, trailing, cfg)
	if !ok {
		// no-match-found is a normal "no signal this tick" outcome
		return nil
	}
	hedge := findHedgeMarket(snap, trailing, cfg)

	signal := &models.Signal{
		ID:        uuid.NewString(),
		MatchID:   snap.MatchID,
		MatchName: snap.MatchName,
		Reason: fmt.Sprintf("momentum reversal: diff %d→%d against %s",
			priorDiff, diff, leader),
		MainMarket:     main.market,
		MainSide:       main.side,
		MainOdds:       main.odds,
		MainStake:      cfg.Unit,
		SourceSnapshot: *snap,
		CreatedAt:      time.Now().UTC(),
	}

	if hedge != nil {
		signal.MainStake = 2 * cfg.Unit
		hedgeStake := cfg.Unit
		signal.HedgeMarket = &hedge.market
		signal.HedgeSide = &hedge.side
		signal.HedgeOdds = &hedge.odds
		signal.HedgeStake = &hedgeStake
		signal.PnL = payout.Matrix(main.odds, signal.MainStake, true, hedge.odds, hedgeStake)
	} else {
		signal.PnL = payout.Matrix(main.odds, signal.MainStake, false, 0, 0)
	}

	return signal
}

// momentumEvidence scans the last momentum_window history entries, most
// recent first, for the most recent prior entry led by the same side. The
// check holds when the differential shrank by at least the configured
// improvement since that entry. A history shorter than the window, or no
// matching prior entry, means no evidence and no signal.
func momentumEvidence(history []models.MatchSnapshot, currentDiff int, leader Leader, cfg *config.StrategyConfig) (int, bool) {
	if len(history) < cfg.MomentumWindow {
		return 0, false
	}
	windowStart := len(history) - cfg.MomentumWindow
	// history ends with the snapshot under evaluation; prior entries only.
	for i := len(history) - 2; i >= windowStart; i-- {
		entry := &history[i]
		entryDiff, entryLeader := Diff(entry.CurrentSet)
		if entryLeader != leader {
			continue
		}
		return entryDiff, entryDiff-currentDiff >= cfg.MomentumImprovement
	}
	return 0, false
}
