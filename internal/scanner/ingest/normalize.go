package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Vodeneev/livebet/internal/pkg/models"
)

// The feed guarantees no schema. Every lookup below is an ordered probe over
// candidate keys, so the accepted shapes stay auditable in one place.
var (
	containerKeys  = []string{"data", "matches", "events", "results", "items"}
	idKeys         = []string{"id", "match_id", "event_id"}
	matchNameKeys  = []string{"name", "match_name", "title"}
	statusKeys     = []string{"status", "state", "match_status"}
	currentSetKeys = []string{"score_points_current_set", "current_set_score", "set_score", "points"}
	setsKeys       = []string{"score_sets", "sets", "sets_score", "set_scores"}
	marketsKeys    = []string{"markets", "odds", "bets"}
	marketNameKeys = []string{"name", "title", "market", "caption"}
	outcomesKeys   = []string{"outcomes", "odds", "rows", "selections"}
	outcomeName    = []string{"name", "label", "outcome", "title", "type"}
	outcomeValue   = []string{"value", "odd", "coef", "coefficient", "rate", "price", "k"}
)

// teamPairAdapters are tried in order until one yields both side names.
// Each adapter covers one raw naming convention (home/away, p1/p2, ...).
var teamPairAdapters = [][2]string{
	{"home", "away"},
	{"team1", "team2"},
	{"p1", "p2"},
	{"player1", "player2"},
	{"competitor1", "competitor2"},
}

var liveStatusTokens = []string{"live", "inplay", "in_play", "in-play", "идет", "идёт"}

// Normalize turns one raw feed payload into zero or more canonical match
// snapshots. Malformed records are skipped with a debug log; nothing in here
// aborts the batch or performs I/O.
func Normalize(payload []byte, capturedAt time.Time) []models.MatchSnapshot {
	var root interface{}
	if err := json.Unmarshal(payload, &root); err != nil {
		slog.Debug("ingest: payload is not JSON, skipping", "error", err)
		return nil
	}

	items := locateMatches(root, 0)
	if len(items) == 0 {
		return nil
	}

	snapshots := make([]models.MatchSnapshot, 0, len(items))
	for _, item := range items {
		raw, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		snap, err := normalizeMatch(raw, capturedAt)
		if err != nil {
			slog.Debug("ingest: skipping malformed record", "error", err)
			continue
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots
}

// locateMatches finds the matches array by probing container keys, descending
// up to three nesting levels ({"data": {"matches": [...]}} style wrappers).
func locateMatches(node interface{}, depth int) []interface{} {
	if depth > 3 {
		return nil
	}
	switch v := node.(type) {
	case []interface{}:
		return v
	case map[string]interface{}:
		for _, key := range containerKeys {
			child, ok := v[key]
			if !ok {
				continue
			}
			if items := locateMatches(child, depth+1); len(items) > 0 {
				return items
			}
		}
	}
	return nil
}

func normalizeMatch(raw map[string]interface{}, capturedAt time.Time) (*models.MatchSnapshot, error) {
	id := extractID(raw)
	if id == "" {
		return nil, fmt.Errorf("record has no id")
	}

	snap := &models.MatchSnapshot{
		MatchID:    id,
		MatchName:  extractMatchName(raw),
		Status:     extractStatus(raw),
		Odds:       map[string]map[string]float64{},
		CapturedAt: capturedAt,
	}

	if p1, p2, ok := extractCurrentSet(raw); ok {
		snap.CurrentSet = models.SetScore{P1: p1, P2: p2}
	}
	snap.Sets = extractSets(raw)
	extractOdds(raw, snap.Odds)

	return snap, nil
}

func extractID(raw map[string]interface{}) string {
	for _, key := range idKeys {
		switch v := raw[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

// extractMatchName takes an explicit name field when present, otherwise
// builds "P1 — P2" from whichever team-pair convention the record uses.
// Team values may be plain strings or objects carrying a name field.
func extractMatchName(raw map[string]interface{}) string {
	for _, key := range matchNameKeys {
		if s, ok := raw[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	for _, pair := range teamPairAdapters {
		first := extractTeamName(raw[pair[0]])
		second := extractTeamName(raw[pair[1]])
		if first != "" && second != "" {
			return first + " — " + second
		}
	}
	return ""
}

func extractTeamName(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		for _, key := range []string{"name", "title", "short_name"} {
			if s, ok := t[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func extractStatus(raw map[string]interface{}) models.MatchStatus {
	for _, key := range statusKeys {
		s, ok := raw[key].(string)
		if !ok {
			continue
		}
		s = strings.ToLower(strings.TrimSpace(s))
		for _, token := range liveStatusTokens {
			if strings.Contains(s, token) {
				return models.StatusLive
			}
		}
		return models.StatusOther
	}
	return models.StatusOther
}

func extractCurrentSet(raw map[string]interface{}) (int, int, bool) {
	for _, key := range currentSetKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if p1, p2, ok := scorePairFromValue(v); ok {
			return p1, p2, true
		}
	}
	return 0, 0, false
}

// scorePairFromValue accepts "6:4", [6, 4] and {p1: 6, p2: 4} style values
// (home/away and score1/score2 spellings included).
func scorePairFromValue(v interface{}) (int, int, bool) {
	switch t := v.(type) {
	case string:
		return parseScorePair(t)
	case []interface{}:
		if len(t) == 2 {
			a, okA := t[0].(float64)
			b, okB := t[1].(float64)
			if okA && okB {
				return int(a), int(b), true
			}
		}
	case map[string]interface{}:
		for _, pair := range [][2]string{{"p1", "p2"}, {"home", "away"}, {"score1", "score2"}, {"s1", "s2"}} {
			a, okA := t[pair[0]].(float64)
			b, okB := t[pair[1]].(float64)
			if okA && okB {
				return int(a), int(b), true
			}
		}
	}
	return 0, 0, false
}

func extractSets(raw map[string]interface{}) []models.SetScore {
	for _, key := range setsKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case []interface{}:
			var sets []models.SetScore
			for _, item := range t {
				if p1, p2, ok := scorePairFromValue(item); ok {
					sets = append(sets, models.SetScore{P1: p1, P2: p2})
				}
			}
			if len(sets) > 0 {
				return sets
			}
		case string:
			// "11:9, 6:11, 11:7"
			var sets []models.SetScore
			for _, part := range strings.Split(t, ",") {
				if p1, p2, ok := parseScorePair(part); ok {
					sets = append(sets, models.SetScore{P1: p1, P2: p2})
				}
			}
			if len(sets) > 0 {
				return sets
			}
		}
	}
	return nil
}

func extractOdds(raw map[string]interface{}, out map[string]map[string]float64) {
	var markets []interface{}
	for _, key := range marketsKeys {
		if list, ok := raw[key].([]interface{}); ok {
			markets = list
			break
		}
	}

	for _, m := range markets {
		market, ok := m.(map[string]interface{})
		if !ok {
			continue
		}
		displayName := ""
		for _, key := range marketNameKeys {
			if s, ok := market[key].(string); ok && s != "" {
				displayName = s
				break
			}
		}
		canonical := classifyMarket(displayName)
		if canonical == "" {
			continue
		}

		var outcomes []interface{}
		for _, key := range outcomesKeys {
			if list, ok := market[key].([]interface{}); ok {
				outcomes = list
				break
			}
		}
		for _, o := range outcomes {
			outcome, ok := o.(map[string]interface{})
			if !ok {
				continue
			}
			name := ""
			for _, key := range outcomeName {
				if s, ok := outcome[key].(string); ok && s != "" {
					name = s
					break
				}
			}
			side := classifySide(name, canonical)
			if side == "" {
				continue
			}
			var rawValue interface{}
			for _, key := range outcomeValue {
				if v, ok := outcome[key]; ok {
					rawValue = v
					break
				}
			}
			odd, err := ParseOdd(rawValue)
			if err != nil || odd <= 1.0 {
				continue
			}
			if out[canonical] == nil {
				out[canonical] = map[string]float64{}
			}
			out[canonical][side] = odd
		}
	}
}

// classifyMarket maps a raw market display name onto a canonical market.
// Substring checks are case-insensitive and run in fixed priority order:
// set handicap, set total, current-set winner, match winner. Unrecognized
// markets are dropped.
func classifyMarket(displayName string) string {
	name := strings.ToLower(strings.TrimSpace(displayName))
	if name == "" {
		return ""
	}
	setScoped := containsAny(name, "сет", "set", "партия", "партии")
	switch {
	case setScoped && containsAny(name, "фора", "гандикап", "handicap"):
		return models.MarketSetHandicap
	case setScoped && containsAny(name, "тотал", "total"):
		return models.MarketSetTotal
	case setScoped && containsAny(name, "побед", "winner", "win"):
		return models.MarketSetWinner
	case containsAny(name, "исход", "побед", "winner", "победитель", "1x2", "moneyline"):
		return models.MarketMatchWinner
	}
	return ""
}

// classifySide maps a raw outcome label onto a canonical side key.
// Two-way markets probe side-1 tokens before side-2 tokens; totals probe
// over before under.
func classifySide(label, market string) string {
	name := strings.ToLower(strings.TrimSpace(label))
	if name == "" {
		return ""
	}
	if market == models.MarketSetTotal {
		switch {
		case containsAny(name, "over", "больше", "бол."):
			return models.SideOver
		case containsAny(name, "under", "меньше", "мен."):
			return models.SideUnder
		}
		return ""
	}
	switch {
	case containsAny(name, "1", "home", "п1", "first"):
		return models.SideP1
	case containsAny(name, "2", "away", "п2", "second"):
		return models.SideP2
	}
	return ""
}

func containsAny(s string, tokens ...string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
