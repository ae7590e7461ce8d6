// Package database provides repository methods for signal and phase
// snapshot persistence.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"wyckoff-trading-bot/internal/signals"
	"wyckoff-trading-bot/internal/wyckoff"
)

// Repository provides data access methods over the connection pool
type Repository struct {
	db *DB
}

// NewRepository creates a repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// PhaseSnapshot is one persisted scan outcome for a symbol
type PhaseSnapshot struct {
	ID              int       `json:"id"`
	Symbol          string    `json:"symbol"`
	Timeframe       string    `json:"timeframe"`
	Phase           string    `json:"phase"`
	Confidence      int       `json:"confidence"`
	DurationBars    int       `json:"duration_bars"`
	TradingAllowed  bool      `json:"trading_allowed"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	ScannedAt       time.Time `json:"scanned_at"`
}

// SaveSignal persists an accepted trade signal. Idempotent on the signal ID.
func (r *Repository) SaveSignal(ctx context.Context, s signals.TradeSignal) error {
	query := `
		INSERT INTO signals (
			id, symbol, asset_class, timeframe, pattern_type, phase,
			confidence_score, volume_ratio, price, bar_timestamp, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.Pool.Exec(ctx, query,
		s.ID, s.Symbol, s.AssetClass, s.Timeframe, s.PatternType, s.Phase.String(),
		s.ConfidenceScore, s.VolumeRatio, s.Price, s.BarTimestamp, s.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save signal: %w", err)
	}

	return nil
}

// GetRecentSignals returns the most recent signals, newest first.
func (r *Repository) GetRecentSignals(ctx context.Context, limit int) ([]signals.TradeSignal, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, symbol, asset_class, timeframe, pattern_type, phase,
		       confidence_score, volume_ratio, price, bar_timestamp, detected_at
		FROM signals
		ORDER BY detected_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetSignalsBySymbol returns signals for one symbol, newest first.
func (r *Repository) GetSignalsBySymbol(ctx context.Context, symbol string, limit int) ([]signals.TradeSignal, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, symbol, asset_class, timeframe, pattern_type, phase,
		       confidence_score, volume_ratio, price, bar_timestamp, detected_at
		FROM signals
		WHERE symbol = $1
		ORDER BY detected_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals for %s: %w", symbol, err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

func scanSignals(rows pgx.Rows) ([]signals.TradeSignal, error) {
	var out []signals.TradeSignal
	for rows.Next() {
		var s signals.TradeSignal
		var phase string
		if err := rows.Scan(
			&s.ID, &s.Symbol, &s.AssetClass, &s.Timeframe, &s.PatternType, &phase,
			&s.ConfidenceScore, &s.VolumeRatio, &s.Price, &s.BarTimestamp, &s.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signal row: %w", err)
		}
		s.Phase = parsePhase(phase)
		out = append(out, s)
	}
	return out, rows.Err()
}

// SavePhaseSnapshot persists one scan's phase outcome for a symbol.
func (r *Repository) SavePhaseSnapshot(ctx context.Context, snap PhaseSnapshot) error {
	query := `
		INSERT INTO phase_snapshots (
			symbol, timeframe, phase, confidence, duration_bars,
			trading_allowed, rejection_reason, scanned_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		snap.Symbol, snap.Timeframe, snap.Phase, snap.Confidence, snap.DurationBars,
		snap.TradingAllowed, snap.RejectionReason, snap.ScannedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save phase snapshot: %w", err)
	}

	return nil
}

// GetLatestPhases returns the newest snapshot per symbol.
func (r *Repository) GetLatestPhases(ctx context.Context) ([]PhaseSnapshot, error) {
	query := `
		SELECT DISTINCT ON (symbol)
		       id, symbol, timeframe, phase, confidence, duration_bars,
		       trading_allowed, COALESCE(rejection_reason, ''), scanned_at
		FROM phase_snapshots
		ORDER BY symbol, scanned_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query phase snapshots: %w", err)
	}
	defer rows.Close()

	var out []PhaseSnapshot
	for rows.Next() {
		var snap PhaseSnapshot
		if err := rows.Scan(
			&snap.ID, &snap.Symbol, &snap.Timeframe, &snap.Phase, &snap.Confidence,
			&snap.DurationBars, &snap.TradingAllowed, &snap.RejectionReason, &snap.ScannedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan phase snapshot row: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func parsePhase(s string) wyckoff.Phase {
	switch s {
	case "A":
		return wyckoff.PhaseA
	case "B":
		return wyckoff.PhaseB
	case "C":
		return wyckoff.PhaseC
	case "D":
		return wyckoff.PhaseD
	case "E":
		return wyckoff.PhaseE
	default:
		return wyckoff.PhaseNone
	}
}
