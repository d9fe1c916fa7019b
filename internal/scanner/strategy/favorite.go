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

// Favorite is the stateless checklist strategy: a clear pre-match favorite
// up two sets to nil, at the very start of the third set, whose current-set
// odds have drifted out. No history, no momentum — a pure conjunction of
// four gates over the single current snapshot.
type Favorite struct {
	cfg atomic.Pointer[config.FavoriteConfig]
}

func NewFavorite(cfg config.FavoriteConfig) *Favorite {
	f := &Favorite{}
	f.cfg.Store(&cfg)
	return f
}

func (f *Favorite) Config() config.FavoriteConfig {
	return *f.cfg.Load()
}

func (f *Favorite) ReplaceConfig(cfg config.FavoriteConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	f.cfg.Store(&cfg)
	return nil
}

// Evaluate applies the four gates to one snapshot. All must hold:
//  1. min(match-winner odds) at or below the favorite threshold
//  2. the favorite leads two sets to nil
//  3. the active set is at 0:0, 1:0 or 0:1
//  4. the favorite's current-set odds at or above the set-winner threshold
func (f *Favorite) Evaluate(snap *models.MatchSnapshot) *models.Signal {
	cfg := f.cfg.Load()

	p1Odd, ok1 := snap.Odd(models.MarketMatchWinner, models.SideP1)
	p2Odd, ok2 := snap.Odd(models.MarketMatchWinner, models.SideP2)
	if !ok1 || !ok2 {
		return nil
	}

	favorite := models.SideP1
	favoriteOdd := p1Odd
	if p2Odd < p1Odd {
		favorite = models.SideP2
		favoriteOdd = p2Odd
	}
	if favoriteOdd > cfg.MaxFavoriteOdds {
		return nil
	}

	p1Sets, p2Sets := snap.SetsWon()
	favoriteSets, opponentSets := p1Sets, p2Sets
	if favorite == models.SideP2 {
		favoriteSets, opponentSets = p2Sets, p1Sets
	}
	if favoriteSets != 2 || opponentSets != 0 {
		return nil
	}

	if !setJustStarted(snap.CurrentSet) {
		return nil
	}

	setOdd, ok := snap.Odd(models.MarketSetWinner, favorite)
	if !ok || setOdd < cfg.MinSetWinnerOdds {
		return nil
	}

	return &models.Signal{
		ID:        uuid.NewString(),
		MatchID:   snap.MatchID,
		MatchName: snap.MatchName,
		Reason: fmt.Sprintf("favorite reversal: %s at %.2f pre-match leads 2:0, set odds %.2f",
			favorite, favoriteOdd, setOdd),
		MainMarket:     models.MarketSetWinner,
		MainSide:       favorite,
		MainOdds:       setOdd,
		MainStake:      cfg.Unit,
		PnL:            payout.Matrix(setOdd, cfg.Unit, false, 0, 0),
		SourceSnapshot: *snap,
		CreatedAt:      time.Now().UTC(),
	}
}

// setJustStarted: the active set is at most one point in.
func setJustStarted(s models.SetScore) bool {
	switch [2]int{s.P1, s.P2} {
	case [2]int{0, 0}, [2]int{1, 0}, [2]int{0, 1}:
		return true
	}
	return false
}
