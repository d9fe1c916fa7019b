package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Vodeneev/livebet/internal/pkg/config"
	"github.com/Vodeneev/livebet/internal/pkg/models"
)

var _ SignalSink = (*PostgresSignalStorage)(nil)

// PostgresSignalStorage keeps emitted signals in PostgreSQL so the dashboard
// and later analysis can read them after the scanner run ends.
type PostgresSignalStorage struct {
	db *sql.DB
}

func NewPostgresSignalStorage(cfg *config.PostgresConfig) (*PostgresSignalStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	storage := &PostgresSignalStorage{db: db}
	if err := storage.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL signal storage initialized")
	return storage, nil
}

func (s *PostgresSignalStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS signals (
		id UUID PRIMARY KEY,
		match_id VARCHAR(200) NOT NULL,
		match_name VARCHAR(500) NOT NULL,
		reason TEXT NOT NULL,
		main_market VARCHAR(200) NOT NULL,
		main_side VARCHAR(20) NOT NULL,
		main_odds DOUBLE PRECISION NOT NULL,
		main_stake DOUBLE PRECISION NOT NULL,
		hedge_market VARCHAR(200),
		hedge_side VARCHAR(20),
		hedge_odds DOUBLE PRECISION,
		hedge_stake DOUBLE PRECISION,
		pnl_a DOUBLE PRECISION NOT NULL,
		pnl_b DOUBLE PRECISION NOT NULL,
		pnl_c DOUBLE PRECISION,
		pnl_c_applicable BOOLEAN NOT NULL,
		pnl_d DOUBLE PRECISION NOT NULL,
		source_snapshot JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_signals_match_id ON signals(match_id);
	CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals(created_at);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *PostgresSignalStorage) SaveSignal(ctx context.Context, signal *models.Signal) error {
	snapshot, err := json.Marshal(signal.SourceSnapshot)
	if err != nil {
		return fmt.Errorf("marshal source snapshot: %w", err)
	}

	query := `
	INSERT INTO signals (
		id, match_id, match_name, reason,
		main_market, main_side, main_odds, main_stake,
		hedge_market, hedge_side, hedge_odds, hedge_stake,
		pnl_a, pnl_b, pnl_c, pnl_c_applicable, pnl_d,
		source_snapshot, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	ON CONFLICT (id) DO NOTHING`

	_, err = s.db.ExecContext(ctx, query,
		signal.ID, signal.MatchID, signal.MatchName, signal.Reason,
		signal.MainMarket, signal.MainSide, signal.MainOdds, signal.MainStake,
		signal.HedgeMarket, signal.HedgeSide, signal.HedgeOdds, signal.HedgeStake,
		signal.PnL.A, signal.PnL.B, signal.PnL.C, signal.PnL.CApplicable, signal.PnL.D,
		snapshot, signal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

func (s *PostgresSignalStorage) Close() error {
	return s.db.Close()
}
