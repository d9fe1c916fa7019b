package models

import (
	"time"
)

// Canonical market names. The ingest normalizer maps whatever the feed calls
// a market onto one of these, so the strategy layer never sees raw names.
const (
	MarketMatchWinner = "Победа в матче"
	MarketSetWinner   = "Победа в текущем сете"
	MarketSetHandicap = "Фора в сете"
	MarketSetTotal    = "Тотал в сете"
)

// Canonical outcome side keys within a market.
const (
	SideP1    = "p1"
	SideP2    = "p2"
	SideOver  = "over"
	SideUnder = "under"
)

// MatchStatus is the normalized match state. Anything the feed reports that
// is not recognizably in-play collapses to StatusOther.
type MatchStatus string

const (
	StatusLive  MatchStatus = "live"
	StatusOther MatchStatus = "other"
)

// SetScore is a points pair within one set, P1 first.
type SetScore struct {
	P1 int `json:"p1"`
	P2 int `json:"p2"`
}

// Total returns the summary number of points in the set.
func (s SetScore) Total() int {
	return s.P1 + s.P2
}

// Max returns the higher of the two point counts.
func (s SetScore) Max() int {
	if s.P1 > s.P2 {
		return s.P1
	}
	return s.P2
}

// MatchSnapshot is one observation of a live match at a point in time.
// Produced by the ingest normalizer, stored in the match state store,
// consumed by the strategies.
type MatchSnapshot struct {
	MatchID   string      `json:"match_id"`
	MatchName string      `json:"match_name"`
	Status    MatchStatus `json:"status"`

	// CurrentSet is the points score inside the active set.
	CurrentSet SetScore `json:"current_set"`
	// Sets are completed sets in chronological order.
	Sets []SetScore `json:"sets"`

	// Odds: canonical market name -> side key -> decimal odds.
	Odds map[string]map[string]float64 `json:"odds"`

	CapturedAt time.Time `json:"captured_at"`
}

// Odd returns the odds for side in market, false when the market or side
// is not quoted in this snapshot.
func (m *MatchSnapshot) Odd(market, side string) (float64, bool) {
	sides, ok := m.Odds[market]
	if !ok {
		return 0, false
	}
	v, ok := sides[side]
	return v, ok
}

// SetsWon returns how many completed sets each side has won.
// Drawn sets (possible in malformed feeds) count for nobody.
func (m *MatchSnapshot) SetsWon() (p1, p2 int) {
	for _, s := range m.Sets {
		switch {
		case s.P1 > s.P2:
			p1++
		case s.P2 > s.P1:
			p2++
		}
	}
	return p1, p2
}
