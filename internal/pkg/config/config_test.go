package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
scanner:
  transport: http
  feed_url: "https://example.com/live"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Strategy != DefaultStrategy() {
		t.Errorf("strategy = %+v, want defaults", cfg.Strategy)
	}
	if cfg.Favorite != DefaultFavorite() {
		t.Errorf("favorite = %+v, want defaults", cfg.Favorite)
	}
	if cfg.Scanner.PayloadBuffer != 64 || cfg.Scanner.DOMFallbackAfter != 2 {
		t.Errorf("scanner defaults not applied: %+v", cfg.Scanner)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
scanner:
  transport: browser
  feed_url: "https://example.com/live"
strategy:
  min_diff: 3
  momentum_window: 5
favorite:
  min_set_winner_odds: 2.10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Strategy.MinDiff != 3 || cfg.Strategy.MomentumWindow != 5 {
		t.Errorf("strategy overrides not applied: %+v", cfg.Strategy)
	}
	// untouched fields keep their defaults
	if cfg.Strategy.MaxDiff != 4 || cfg.Strategy.Unit != 30.0 {
		t.Errorf("strategy defaults lost on partial override: %+v", cfg.Strategy)
	}
	if cfg.Favorite.MinSetWinnerOdds != 2.10 {
		t.Errorf("favorite override not applied: %+v", cfg.Favorite)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "unknown transport",
			body: `
scanner:
  transport: carrier-pigeon
`,
			wantErr: "transport",
		},
		{
			name: "inverted diff band",
			body: `
scanner:
  transport: http
strategy:
  min_diff: 4
  max_diff: 2
`,
			wantErr: "diff band",
		},
		{
			name: "inverted main odds range",
			body: `
scanner:
  transport: http
strategy:
  main_odds_min: 2.60
  main_odds_max: 1.70
`,
			wantErr: "main odds range",
		},
		{
			name: "hedge odds min at 1.0",
			body: `
scanner:
  transport: http
strategy:
  hedge_odds_min: 1.0
`,
			wantErr: "hedge odds range",
		},
		{
			name: "zero momentum window",
			body: `
scanner:
  transport: http
strategy:
  momentum_window: -1
`,
			wantErr: "momentum_window",
		},
		{
			name: "negative unit",
			body: `
scanner:
  transport: http
strategy:
  unit: -5
`,
			wantErr: "unit",
		},
		{
			name: "stake plan does not fit the per-match cap",
			body: `
scanner:
  transport: http
strategy:
  max_units_per_match: 2
`,
			wantErr: "max_units_per_match",
		},
		{
			name: "favorite threshold below 1.0",
			body: `
scanner:
  transport: http
favorite:
  max_favorite_odds: 0.9
`,
			wantErr: "max_favorite_odds",
		},
	}

	for _, tt := range tests {
		path := writeConfig(t, tt.body)
		_, err := Load(path)
		if err == nil {
			t.Errorf("%s: Load accepted an invalid config", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load accepted a missing config file")
	}
}
