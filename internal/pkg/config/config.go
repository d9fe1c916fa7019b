package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Strategy StrategyConfig `yaml:"strategy"`
	Favorite FavoriteConfig `yaml:"favorite"`
	HTTP     HTTPConfig     `yaml:"http"`
	Telegram TelegramConfig `yaml:"telegram"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

type LoggingConfig struct {
	Enabled       bool          `yaml:"enabled"`
	GroupName     string        `yaml:"group_name"`
	GroupID       string        `yaml:"group_id"`
	FolderID      string        `yaml:"folder_id"`
	Level         string        `yaml:"level"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	ProjectLabel  string        `yaml:"project_label"`
	ServiceLabel  string        `yaml:"service_label"`
}

// ScannerConfig configures the live feed transport.
type ScannerConfig struct {
	// Transport is "browser" (headless Chrome with network interception and
	// DOM fallback) or "http" (direct JSON feed polling).
	Transport       string        `yaml:"transport"`
	FeedURL         string        `yaml:"feed_url"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	PayloadBuffer   int           `yaml:"payload_buffer"`
	UserAgent       string        `yaml:"user_agent"`
	// URLFilter: only intercepted responses whose URL contains this substring
	// are treated as feed payloads. Empty = every XHR/fetch response.
	URLFilter string `yaml:"url_filter"`
	// DOMFallbackAfter: number of consecutive refreshes with zero normalized
	// matches before the rendered-page extraction pass kicks in.
	DOMFallbackAfter int `yaml:"dom_fallback_after"`
}

// StrategyConfig is the tunable parameter set of the momentum-reversal
// strategy. Constructed once at startup, replaced wholesale on operator
// settings update; evaluations snapshot it at call time, so it must never
// be mutated in place.
type StrategyConfig struct {
	MinDiff             int     `yaml:"min_diff"`
	MaxDiff             int     `yaml:"max_diff"`
	MomentumWindow      int     `yaml:"momentum_window"`
	MomentumImprovement int     `yaml:"momentum_improvement"`
	MainOddsMin         float64 `yaml:"main_odds_min"`
	MainOddsMax         float64 `yaml:"main_odds_max"`
	HedgeOddsMin        float64 `yaml:"hedge_odds_min"`
	HedgeOddsMax        float64 `yaml:"hedge_odds_max"`
	MinPointsForTotal   int     `yaml:"min_points_for_total"`
	MinScoreForTotal    int     `yaml:"min_score_for_total"`
	Unit                float64 `yaml:"unit"`
	MaxUnitsPerMatch    int     `yaml:"max_units_per_match"`
}

// FavoriteConfig is the parameter set of the favorite-reversal checklist.
type FavoriteConfig struct {
	MaxFavoriteOdds  float64 `yaml:"max_favorite_odds"`
	MinSetWinnerOdds float64 `yaml:"min_set_winner_odds"`
	Unit             float64 `yaml:"unit"`
}

type HTTPConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	// CooldownMinutes: minutes before a duplicate signal for the same
	// match+market is sent again (default 60).
	CooldownMinutes int `yaml:"cooldown_minutes"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DefaultStrategy returns the recognized defaults of the momentum strategy.
func DefaultStrategy() StrategyConfig {
	return StrategyConfig{
		MinDiff:             2,
		MaxDiff:             4,
		MomentumWindow:      3,
		MomentumImprovement: 2,
		MainOddsMin:         1.70,
		MainOddsMax:         2.60,
		HedgeOddsMin:        1.35,
		HedgeOddsMax:        1.80,
		MinPointsForTotal:   12,
		MinScoreForTotal:    6,
		Unit:                30.0,
		MaxUnitsPerMatch:    3,
	}
}

// DefaultFavorite returns the recognized defaults of the favorite checklist.
func DefaultFavorite() FavoriteConfig {
	return FavoriteConfig{
		MaxFavoriteOdds:  1.20,
		MinSetWinnerOdds: 1.90,
		Unit:             30.0,
	}
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Strategy: DefaultStrategy(),
		Favorite: DefaultFavorite(),
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.Scanner.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (c *ScannerConfig) applyDefaults() {
	if c.Transport == "" {
		c.Transport = "browser"
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 30 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.PayloadBuffer <= 0 {
		c.PayloadBuffer = 64
	}
	if c.DOMFallbackAfter <= 0 {
		c.DOMFallbackAfter = 2
	}
}

// Validate rejects broken configs eagerly; a bad config is fatal at startup
// and must never be discovered mid-run.
func (c *Config) Validate() error {
	if c.Scanner.Transport != "browser" && c.Scanner.Transport != "http" {
		return fmt.Errorf("scanner.transport must be \"browser\" or \"http\", got %q", c.Scanner.Transport)
	}
	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	if err := c.Favorite.Validate(); err != nil {
		return err
	}
	return nil
}

func (s *StrategyConfig) Validate() error {
	if s.MinDiff < 0 || s.MaxDiff < s.MinDiff {
		return fmt.Errorf("strategy: diff band [%d, %d] is invalid", s.MinDiff, s.MaxDiff)
	}
	if s.MomentumWindow <= 0 {
		return fmt.Errorf("strategy: momentum_window must be positive, got %d", s.MomentumWindow)
	}
	if s.MomentumImprovement <= 0 {
		return fmt.Errorf("strategy: momentum_improvement must be positive, got %d", s.MomentumImprovement)
	}
	if s.MainOddsMin <= 1.0 || s.MainOddsMax < s.MainOddsMin {
		return fmt.Errorf("strategy: main odds range [%.2f, %.2f] is invalid", s.MainOddsMin, s.MainOddsMax)
	}
	if s.HedgeOddsMin <= 1.0 || s.HedgeOddsMax < s.HedgeOddsMin {
		return fmt.Errorf("strategy: hedge odds range [%.2f, %.2f] is invalid", s.HedgeOddsMin, s.HedgeOddsMax)
	}
	if s.Unit <= 0 {
		return fmt.Errorf("strategy: unit must be positive, got %.2f", s.Unit)
	}
	// Hedged plan stakes 2 units on main and 1 on hedge.
	if s.MaxUnitsPerMatch < 3 {
		return fmt.Errorf("strategy: max_units_per_match must be at least 3, got %d", s.MaxUnitsPerMatch)
	}
	return nil
}

func (f *FavoriteConfig) Validate() error {
	if f.MaxFavoriteOdds <= 1.0 {
		return fmt.Errorf("favorite: max_favorite_odds must be above 1.0, got %.2f", f.MaxFavoriteOdds)
	}
	if f.MinSetWinnerOdds <= 1.0 {
		return fmt.Errorf("favorite: min_set_winner_odds must be above 1.0, got %.2f", f.MinSetWinnerOdds)
	}
	if f.Unit <= 0 {
		return fmt.Errorf("favorite: unit must be positive, got %.2f", f.Unit)
	}
	return nil
}
