package strategy

import (
	"github.com/Vodeneev/livebet/internal/pkg/config"
	"github.com/Vodeneev/livebet/internal/pkg/models"
)

// leg is one selected wager: a market, a side and its quoted odds.
type leg struct {
	market string
	side   string
	odds   float64
}

// findMainMarket picks the reversal bet for the trailing side: current-set
// winner first, match winner second. The first market whose odds land inside
// the main odds band wins, no further search.
func findMainMarket(snap *models.MatchSnapshot, side string, cfg *config.StrategyConfig) (leg, bool) {
	for _, market := range []string{models.MarketSetWinner, models.MarketMatchWinner} {
		odd, ok := snap.Odd(market, side)
		if !ok {
			continue
		}
		if odd >= cfg.MainOddsMin && odd <= cfg.MainOddsMax {
			return leg{market: market, side: side, odds: odd}, true
		}
	}
	return leg{}, false
}

// findHedgeMarket picks an optional offsetting wager. Preference one is a
// set handicap on the trailing side; the set-total over is accepted instead
// only once the set is deep enough for a total to be live (either side at
// min_score_for_total, or min_points_for_total points played).
func findHedgeMarket(snap *models.MatchSnapshot, side string, cfg *config.StrategyConfig) *leg {
	if odd, ok := snap.Odd(models.MarketSetHandicap, side); ok {
		if odd >= cfg.HedgeOddsMin && odd <= cfg.HedgeOddsMax {
			return &leg{market: models.MarketSetHandicap, side: side, odds: odd}
		}
	}

	cs := snap.CurrentSet
	deepEnough := (cs.P1 >= cfg.MinScoreForTotal && cs.P2 >= cfg.MinScoreForTotal) ||
		cs.Total() >= cfg.MinPointsForTotal
	if !deepEnough {
		return nil
	}
	if odd, ok := snap.Odd(models.MarketSetTotal, models.SideOver); ok {
		if odd >= cfg.HedgeOddsMin && odd <= cfg.HedgeOddsMax {
			return &leg{market: models.MarketSetTotal, side: models.SideOver, odds: odd}
		}
	}
	return nil
}
