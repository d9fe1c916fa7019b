package ingest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// numericTokenRe matches the first numeric token in a raw odds value,
// tolerating a comma decimal separator ("1,95").
var numericTokenRe = regexp.MustCompile(`[-+]?\d+(?:[.,]\d+)?`)

// ParseOdd extracts a decimal odds value from whatever the feed put into the
// field: a number, a numeric string, or a string with surrounding junk
// ("кф 1,95"). A value without a numeric token is a parse error, which the
// caller treats as a skipped outcome, never as a fatal condition.
func ParseOdd(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		token := numericTokenRe.FindString(x)
		if token == "" {
			return 0, fmt.Errorf("no numeric token in %q", x)
		}
		token = strings.ReplaceAll(token, ",", ".")
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return 0, fmt.Errorf("parse odd %q: %w", x, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported odd value type %T", v)
	}
}

// parseScorePair parses a "6:4" style score into its two point counts.
// Accepts ":" and "-" separators and numeric pairs embedded in junk.
func parseScorePair(raw string) (int, int, bool) {
	raw = strings.TrimSpace(raw)
	for _, sep := range []string{":", "-", "–"} {
		if !strings.Contains(raw, sep) {
			continue
		}
		parts := strings.SplitN(raw, sep, 2)
		a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
		b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errA == nil && errB == nil {
			return a, b, true
		}
	}
	return 0, 0, false
}
