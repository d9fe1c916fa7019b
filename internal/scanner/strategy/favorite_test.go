package strategy

import (
	"testing"
	"time"

	"github.com/Vodeneev/livebet/internal/pkg/config"
	"github.com/Vodeneev/livebet/internal/pkg/models"
)

// favoriteSnap passes all four checklist gates: p1 is a 1.15 pre-match
// favorite, leads 2:0 in sets, the third set just started and p1's
// current-set odds sit at 1.95.
func favoriteSnap() models.MatchSnapshot {
	return models.MatchSnapshot{
		MatchID:   "m1",
		MatchName: "Иванов — Петров",
		Status:    models.StatusLive,
		Sets: []models.SetScore{
			{P1: 11, P2: 5},
			{P1: 11, P2: 7},
		},
		CurrentSet: models.SetScore{P1: 0, P2: 0},
		Odds: map[string]map[string]float64{
			models.MarketMatchWinner: {models.SideP1: 1.15, models.SideP2: 5.50},
			models.MarketSetWinner:   {models.SideP1: 1.95, models.SideP2: 1.85},
		},
		CapturedAt: time.Now(),
	}
}

func TestFavoriteSignal(t *testing.T) {
	f := NewFavorite(config.DefaultFavorite())
	snap := favoriteSnap()

	signal := f.Evaluate(&snap)
	if signal == nil {
		t.Fatal("expected a signal, got nil")
	}
	if signal.MainMarket != models.MarketSetWinner || signal.MainSide != models.SideP1 {
		t.Errorf("main leg = %s/%s, want %s/%s",
			signal.MainMarket, signal.MainSide, models.MarketSetWinner, models.SideP1)
	}
	if signal.MainOdds != 1.95 || signal.MainStake != 30.0 {
		t.Errorf("main leg = %v @ %v, want stake 30 @ 1.95", signal.MainStake, signal.MainOdds)
	}
	if signal.HasHedge() {
		t.Error("checklist signals never carry a hedge leg")
	}
	if signal.PnL.D != -30.0 {
		t.Errorf("PnL D = %v, want -30", signal.PnL.D)
	}
}

func TestFavoriteMirroredSides(t *testing.T) {
	f := NewFavorite(config.DefaultFavorite())
	snap := favoriteSnap()
	snap.Sets = []models.SetScore{{P1: 5, P2: 11}, {P1: 7, P2: 11}}
	snap.Odds = map[string]map[string]float64{
		models.MarketMatchWinner: {models.SideP1: 5.50, models.SideP2: 1.15},
		models.MarketSetWinner:   {models.SideP1: 1.85, models.SideP2: 1.95},
	}

	signal := f.Evaluate(&snap)
	if signal == nil {
		t.Fatal("expected a signal, got nil")
	}
	if signal.MainSide != models.SideP2 {
		t.Errorf("main side = %s, want %s", signal.MainSide, models.SideP2)
	}
}

// Each case flips exactly one gate of the passing snapshot; all must yield no
// signal, so the checklist is a strict conjunction.
func TestFavoriteGateConjunction(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(snap *models.MatchSnapshot)
	}{
		{
			name: "favorite not clear enough pre-match",
			mutate: func(snap *models.MatchSnapshot) {
				snap.Odds[models.MarketMatchWinner][models.SideP1] = 1.50
			},
		},
		{
			name: "match-winner odds missing",
			mutate: func(snap *models.MatchSnapshot) {
				delete(snap.Odds, models.MarketMatchWinner)
			},
		},
		{
			name: "sets split one apiece",
			mutate: func(snap *models.MatchSnapshot) {
				snap.Sets = []models.SetScore{{P1: 11, P2: 5}, {P1: 7, P2: 11}}
			},
		},
		{
			name: "only one set played",
			mutate: func(snap *models.MatchSnapshot) {
				snap.Sets = snap.Sets[:1]
			},
		},
		{
			name: "third set already in progress",
			mutate: func(snap *models.MatchSnapshot) {
				snap.CurrentSet = models.SetScore{P1: 2, P2: 0}
			},
		},
		{
			name: "set-winner odds not drifted out",
			mutate: func(snap *models.MatchSnapshot) {
				snap.Odds[models.MarketSetWinner][models.SideP1] = 1.50
			},
		},
		{
			name: "set-winner market missing",
			mutate: func(snap *models.MatchSnapshot) {
				delete(snap.Odds, models.MarketSetWinner)
			},
		},
	}

	f := NewFavorite(config.DefaultFavorite())
	for _, tt := range tests {
		snap := favoriteSnap()
		tt.mutate(&snap)
		if signal := f.Evaluate(&snap); signal != nil {
			t.Errorf("%s: got signal %q, want nil", tt.name, signal.Reason)
		}
	}
}

func TestFavoriteSetJustStarted(t *testing.T) {
	tests := []struct {
		score models.SetScore
		want  bool
	}{
		{models.SetScore{P1: 0, P2: 0}, true},
		{models.SetScore{P1: 1, P2: 0}, true},
		{models.SetScore{P1: 0, P2: 1}, true},
		{models.SetScore{P1: 1, P2: 1}, false},
		{models.SetScore{P1: 2, P2: 0}, false},
	}
	for _, tt := range tests {
		if got := setJustStarted(tt.score); got != tt.want {
			t.Errorf("setJustStarted(%d:%d) = %v, want %v", tt.score.P1, tt.score.P2, got, tt.want)
		}
	}
}

func TestFavoriteReplaceConfig(t *testing.T) {
	f := NewFavorite(config.DefaultFavorite())

	bad := config.DefaultFavorite()
	bad.MaxFavoriteOdds = 0.9
	if err := f.ReplaceConfig(bad); err == nil {
		t.Fatal("ReplaceConfig accepted max_favorite_odds below 1.0")
	}

	good := config.DefaultFavorite()
	good.MinSetWinnerOdds = 2.10
	if err := f.ReplaceConfig(good); err != nil {
		t.Fatalf("ReplaceConfig rejected a valid parameter set: %v", err)
	}
	if got := f.Config(); got.MinSetWinnerOdds != 2.10 {
		t.Errorf("min_set_winner_odds = %v after replacement, want 2.10", got.MinSetWinnerOdds)
	}
}
