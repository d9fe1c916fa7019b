package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/Vodeneev/livebet/internal/pkg/config"
	"github.com/Vodeneev/livebet/internal/pkg/models"
)

func liveSnap(cur models.SetScore, odds map[string]map[string]float64) models.MatchSnapshot {
	if odds == nil {
		odds = map[string]map[string]float64{}
	}
	return models.MatchSnapshot{
		MatchID:    "m1",
		MatchName:  "Иванов — Петров",
		Status:     models.StatusLive,
		CurrentSet: cur,
		Odds:       odds,
		CapturedAt: time.Now(),
	}
}

// buildHistory produces a tick sequence for the given current-set scores;
// only the last snapshot carries odds, matching how the engine evaluates the
// freshest tick against stored history.
func buildHistory(scores []models.SetScore, finalOdds map[string]map[string]float64) []models.MatchSnapshot {
	history := make([]models.MatchSnapshot, 0, len(scores))
	for i, s := range scores {
		var odds map[string]map[string]float64
		if i == len(scores)-1 {
			odds = finalOdds
		}
		history = append(history, liveSnap(s, odds))
	}
	return history
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMomentumSignalNoHedge(t *testing.T) {
	// diffs 4 -> 4 -> 2 with p1 leading throughout; p2 closes the gap
	scores := []models.SetScore{
		{P1: 5, P2: 1},
		{P1: 6, P2: 2},
		{P1: 6, P2: 4},
	}
	odds := map[string]map[string]float64{
		models.MarketSetWinner: {models.SideP2: 1.95},
	}
	history := buildHistory(scores, odds)
	m := NewMomentum(config.DefaultStrategy())

	signal := m.Evaluate(&history[len(history)-1], history)
	if signal == nil {
		t.Fatal("expected a signal, got nil")
	}
	if signal.MainMarket != models.MarketSetWinner {
		t.Errorf("main market = %q, want %q", signal.MainMarket, models.MarketSetWinner)
	}
	if signal.MainSide != models.SideP2 {
		t.Errorf("main side = %q, want %q", signal.MainSide, models.SideP2)
	}
	if signal.MainOdds != 1.95 {
		t.Errorf("main odds = %v, want 1.95", signal.MainOdds)
	}
	if signal.MainStake != 30.0 {
		t.Errorf("main stake = %v, want 30.0 (single unit when unhedged)", signal.MainStake)
	}
	if signal.HasHedge() {
		t.Error("signal has a hedge leg, want none")
	}
	if signal.PnL.CApplicable || signal.PnL.C != nil {
		t.Error("scenario C must be absent without a hedge leg")
	}
	if !approx(signal.PnL.A, 30*0.95) {
		t.Errorf("PnL A = %v, want %v", signal.PnL.A, 30*0.95)
	}
	if signal.PnL.B != -30.0 || signal.PnL.D != -30.0 {
		t.Errorf("PnL B/D = %v/%v, want -30/-30", signal.PnL.B, signal.PnL.D)
	}
	if signal.ID == "" || signal.Reason == "" {
		t.Error("signal must carry an id and a reason")
	}
}

func TestMomentumSignalWithHedge(t *testing.T) {
	scores := []models.SetScore{
		{P1: 5, P2: 1},
		{P1: 6, P2: 2},
		{P1: 6, P2: 4},
	}
	odds := map[string]map[string]float64{
		models.MarketSetWinner:   {models.SideP2: 2.00},
		models.MarketSetHandicap: {models.SideP2: 1.60},
	}
	history := buildHistory(scores, odds)
	m := NewMomentum(config.DefaultStrategy())

	signal := m.Evaluate(&history[len(history)-1], history)
	if signal == nil {
		t.Fatal("expected a signal, got nil")
	}
	if !signal.HasHedge() {
		t.Fatal("expected a hedge leg")
	}
	if signal.MainStake != 60.0 {
		t.Errorf("main stake = %v, want 60.0 (two units when hedged)", signal.MainStake)
	}
	if *signal.HedgeStake != 30.0 {
		t.Errorf("hedge stake = %v, want 30.0", *signal.HedgeStake)
	}
	if *signal.HedgeMarket != models.MarketSetHandicap || *signal.HedgeSide != models.SideP2 {
		t.Errorf("hedge leg = %s/%s, want %s/%s",
			*signal.HedgeMarket, *signal.HedgeSide, models.MarketSetHandicap, models.SideP2)
	}
	if !signal.PnL.CApplicable || signal.PnL.C == nil {
		t.Fatal("scenario C must be present with a hedge leg")
	}
	// total exposure lost when both legs lose
	if !approx(signal.PnL.D, -90.0) {
		t.Errorf("PnL D = %v, want -90", signal.PnL.D)
	}
}

func TestMomentumRejections(t *testing.T) {
	odds := map[string]map[string]float64{
		models.MarketSetWinner: {models.SideP2: 1.95, models.SideP1: 1.95},
	}

	tests := []struct {
		name   string
		scores []models.SetScore
		mutate func(history []models.MatchSnapshot)
	}{
		{
			name:   "history shorter than window",
			scores: []models.SetScore{{P1: 6, P2: 2}, {P1: 6, P2: 4}},
		},
		{
			name:   "no improvement inside window",
			scores: []models.SetScore{{P1: 4, P2: 2}, {P1: 5, P2: 3}, {P1: 6, P2: 4}},
		},
		{
			name: "most recent same-leader entry decides, older ignored",
			// 4 -> 3 -> 2: the 3-diff entry is checked first, 3-2 < 2
			scores: []models.SetScore{{P1: 5, P2: 1}, {P1: 5, P2: 2}, {P1: 6, P2: 4}},
		},
		{
			name:   "leader flipped, no prior entry with same leader",
			scores: []models.SetScore{{P1: 1, P2: 5}, {P1: 2, P2: 6}, {P1: 6, P2: 4}},
		},
		{
			name:   "diff above band",
			scores: []models.SetScore{{P1: 8, P2: 0}, {P1: 8, P2: 1}, {P1: 7, P2: 2}},
		},
		{
			name:   "diff below band",
			scores: []models.SetScore{{P1: 5, P2: 2}, {P1: 5, P2: 3}, {P1: 5, P2: 4}},
		},
		{
			name:   "set past the reversal horizon",
			scores: []models.SetScore{{P1: 8, P2: 3}, {P1: 8, P2: 4}, {P1: 9, P2: 7}},
		},
		{
			name:   "match not live",
			scores: []models.SetScore{{P1: 5, P2: 1}, {P1: 6, P2: 2}, {P1: 6, P2: 4}},
			mutate: func(history []models.MatchSnapshot) {
				history[len(history)-1].Status = models.StatusOther
			},
		},
		{
			name:   "no market inside the odds band",
			scores: []models.SetScore{{P1: 5, P2: 1}, {P1: 6, P2: 2}, {P1: 6, P2: 4}},
			mutate: func(history []models.MatchSnapshot) {
				history[len(history)-1].Odds = map[string]map[string]float64{
					models.MarketSetWinner:   {models.SideP2: 3.10},
					models.MarketMatchWinner: {models.SideP2: 5.00},
				}
			},
		},
	}

	m := NewMomentum(config.DefaultStrategy())
	for _, tt := range tests {
		history := buildHistory(tt.scores, odds)
		if tt.mutate != nil {
			tt.mutate(history)
		}
		if signal := m.Evaluate(&history[len(history)-1], history); signal != nil {
			t.Errorf("%s: got signal %q, want nil", tt.name, signal.Reason)
		}
	}
}

func TestMomentumMainMarketFallback(t *testing.T) {
	scores := []models.SetScore{
		{P1: 5, P2: 1},
		{P1: 6, P2: 2},
		{P1: 6, P2: 4},
	}
	// set winner outside the band, match winner inside: the fallback is taken
	odds := map[string]map[string]float64{
		models.MarketSetWinner:   {models.SideP2: 3.00},
		models.MarketMatchWinner: {models.SideP2: 2.20},
	}
	history := buildHistory(scores, odds)
	m := NewMomentum(config.DefaultStrategy())

	signal := m.Evaluate(&history[len(history)-1], history)
	if signal == nil {
		t.Fatal("expected a signal on the match-winner fallback, got nil")
	}
	if signal.MainMarket != models.MarketMatchWinner || signal.MainOdds != 2.20 {
		t.Errorf("main = %s @ %v, want %s @ 2.20", signal.MainMarket, signal.MainOdds, models.MarketMatchWinner)
	}
}

func TestMomentumTotalHedgeGate(t *testing.T) {
	base := map[string]map[string]float64{
		models.MarketSetWinner: {models.SideP2: 1.95},
		models.MarketSetTotal:  {models.SideOver: 1.70},
	}
	m := NewMomentum(config.DefaultStrategy())

	// 6:4 = 10 points, below min_points_for_total and p2 under
	// min_score_for_total: the total must not be used as a hedge.
	shallow := buildHistory([]models.SetScore{{P1: 5, P2: 1}, {P1: 6, P2: 2}, {P1: 6, P2: 4}}, base)
	signal := m.Evaluate(&shallow[len(shallow)-1], shallow)
	if signal == nil {
		t.Fatal("expected a signal, got nil")
	}
	if signal.HasHedge() {
		t.Error("total hedge accepted in a shallow set, want unhedged signal")
	}

	// 7:5 = 12 points played, deep enough
	deep := buildHistory([]models.SetScore{{P1: 5, P2: 1}, {P1: 7, P2: 3}, {P1: 7, P2: 5}}, base)
	signal = m.Evaluate(&deep[len(deep)-1], deep)
	if signal == nil {
		t.Fatal("expected a signal, got nil")
	}
	if !signal.HasHedge() || *signal.HedgeMarket != models.MarketSetTotal {
		t.Error("expected the set-total over hedge once enough points are played")
	}
}

func TestMomentumReplaceConfig(t *testing.T) {
	m := NewMomentum(config.DefaultStrategy())

	bad := config.DefaultStrategy()
	bad.MainOddsMin = 2.60
	bad.MainOddsMax = 1.70
	if err := m.ReplaceConfig(bad); err == nil {
		t.Fatal("ReplaceConfig accepted an inverted odds range")
	}
	if got := m.Config(); got != config.DefaultStrategy() {
		t.Errorf("config changed after rejected replacement: %+v", got)
	}

	good := config.DefaultStrategy()
	good.MomentumWindow = 5
	if err := m.ReplaceConfig(good); err != nil {
		t.Fatalf("ReplaceConfig rejected a valid parameter set: %v", err)
	}
	if got := m.Config(); got.MomentumWindow != 5 {
		t.Errorf("momentum window = %d after replacement, want 5", got.MomentumWindow)
	}
}
