package strategy

import (
	"github.com/Vodeneev/livebet/internal/pkg/models"
)

// Leader identifies which side is ahead on points in the active set.
type Leader string

const (
	LeaderP1   Leader = models.SideP1
	LeaderP2   Leader = models.SideP2
	LeaderNone Leader = "equal"
)

// Opponent returns the other side's key.
func (l Leader) Opponent() string {
	if l == LeaderP1 {
		return models.SideP2
	}
	return models.SideP1
}

// Diff returns the absolute point differential of the active set and which
// side leads: "6:4" -> (2, p1).
func Diff(s models.SetScore) (int, Leader) {
	switch {
	case s.P1 > s.P2:
		return s.P1 - s.P2, LeaderP1
	case s.P2 > s.P1:
		return s.P2 - s.P1, LeaderP2
	default:
		return 0, LeaderNone
	}
}

// NotEndOfSet reports whether the active set is still far enough from its
// end for a reversal to play out (nobody past 8 points).
func NotEndOfSet(s models.SetScore) bool {
	return s.Max() <= 8
}
