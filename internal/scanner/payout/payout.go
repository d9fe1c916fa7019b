// Package payout computes the payoff scenario matrix for a main bet with an
// optional hedge leg.
package payout

import (
	"github.com/Vodeneev/livebet/internal/pkg/models"
)

// Matrix builds the four-scenario P&L for given stakes and decimal odds.
// hedgeOdds/hedgeStake are ignored when hasHedge is false.
//
// Scenario C (both legs win) assumes the two markets are independent. For a
// set-winner main against a set-handicap or set-total hedge they usually are
// not, so C is an upper-bound estimate; CApplicable records that the number
// is there but should not be read as a guaranteed payoff.
func Matrix(mainOdds, mainStake float64, hasHedge bool, hedgeOdds, hedgeStake float64) models.PnLMatrix {
	if !hasHedge {
		return models.PnLMatrix{
			A: mainStake * (mainOdds - 1),
			B: -mainStake,
			D: -mainStake,
		}
	}

	c := mainStake*(mainOdds-1) + hedgeStake*(hedgeOdds-1)
	return models.PnLMatrix{
		A:           mainStake*(mainOdds-1) - hedgeStake,
		B:           hedgeStake*(hedgeOdds-1) - mainStake,
		C:           &c,
		CApplicable: true,
		D:           -(mainStake + hedgeStake),
	}
}
