package models

import (
	"time"
)

// PnLMatrix is the four payoff scenarios for a main bet with an optional
// hedge. C is nil when there is no hedge; CApplicable is false when the main
// and hedge markets are correlated or mutually exclusive, in which case C is
// an upper-bound estimate at best.
type PnLMatrix struct {
	// A: main wins, hedge loses.
	A float64 `json:"a"`
	// B: main loses, hedge wins (or just the lost main stake without hedge).
	B float64 `json:"b"`
	// C: both win.
	C           *float64 `json:"c"`
	CApplicable bool     `json:"c_applicable"`
	// D: both lose.
	D float64 `json:"d"`
}

// Signal is the engine output: a proposed main bet, an optional hedge and
// the payoff matrix. Immutable once constructed; duplicates across ticks for
// the same match are possible, de-duplication is the emitter's job.
type Signal struct {
	ID        string `json:"id"`
	MatchID   string `json:"match_id"`
	MatchName string `json:"match_name"`
	Reason    string `json:"reason"`

	MainMarket string  `json:"main_market"`
	MainSide   string  `json:"main_side"`
	MainOdds   float64 `json:"main_odds"`
	MainStake  float64 `json:"main_stake"`

	HedgeMarket *string  `json:"hedge_market"`
	HedgeSide   *string  `json:"hedge_side"`
	HedgeOdds   *float64 `json:"hedge_odds"`
	HedgeStake  *float64 `json:"hedge_stake"`

	PnL PnLMatrix `json:"pnl"`

	SourceSnapshot MatchSnapshot `json:"source_snapshot"`
	CreatedAt      time.Time     `json:"created_at"`
}

// HasHedge reports whether the signal carries a hedge leg.
func (s *Signal) HasHedge() bool {
	return s.HedgeMarket != nil
}
