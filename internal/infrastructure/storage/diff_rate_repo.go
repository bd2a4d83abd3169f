package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vitos/crypto_arbitrage/internal/domain"
)

func (s *SQLiteStore) CreateDiffRate(ctx context.Context, d *domain.DiffRate) error {
	query := `INSERT INTO diff_rates (platform, coin, direction, from_market, from_symbol, to_market, to_symbol, enabled)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		d.Platform, d.Coin, d.Direction, d.FromMarket, d.FromSymbol, d.ToMarket, d.ToSymbol, d.Enabled)
	if err != nil {
		return err
	}
	d.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) ListEnabledDiffRates(ctx context.Context) ([]domain.DiffRate, error) {
	query := `SELECT id, platform, coin, direction, from_market, from_symbol, to_market, to_symbol, enabled
			  FROM diff_rates WHERE enabled = 1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []domain.DiffRate
	for rows.Next() {
		var d domain.DiffRate
		if err := rows.Scan(&d.ID, &d.Platform, &d.Coin, &d.Direction, &d.FromMarket, &d.FromSymbol, &d.ToMarket, &d.ToSymbol, &d.Enabled); err != nil {
			return nil, err
		}
		rates = append(rates, d)
	}
	return rates, rows.Err()
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, diffRateID int64) (*domain.DiffRateSnapshot, error) {
	query := `SELECT diff_rate_id, from_price, to_price, diff, rate, updated_at FROM diff_rate_snapshots WHERE diff_rate_id = ?`
	row := s.db.QueryRowContext(ctx, query, diffRateID)

	var snap domain.DiffRateSnapshot
	err := row.Scan(&snap.DiffRateID, &snap.FromPrice, &snap.ToPrice, &snap.Diff, &snap.Rate, &snap.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot for diff rate %d: %w", diffRateID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context) ([]domain.DiffRateSnapshot, error) {
	query := `SELECT diff_rate_id, from_price, to_price, diff, rate, updated_at FROM diff_rate_snapshots ORDER BY diff_rate_id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []domain.DiffRateSnapshot
	for rows.Next() {
		var snap domain.DiffRateSnapshot
		if err := rows.Scan(&snap.DiffRateID, &snap.FromPrice, &snap.ToPrice, &snap.Diff, &snap.Rate, &snap.UpdatedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (s *SQLiteStore) UpsertSnapshot(ctx context.Context, snap *domain.DiffRateSnapshot) error {
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now()
	}
	query := `INSERT INTO diff_rate_snapshots (diff_rate_id, from_price, to_price, diff, rate, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?)
			  ON CONFLICT(diff_rate_id) DO UPDATE SET
			  from_price=excluded.from_price,
			  to_price=excluded.to_price,
			  diff=excluded.diff,
			  rate=excluded.rate,
			  updated_at=excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query, snap.DiffRateID, snap.FromPrice, snap.ToPrice, snap.Diff, snap.Rate, snap.UpdatedAt)
	return err
}

func (s *SQLiteStore) InsertHistory(ctx context.Context, h *domain.DiffRateHistory) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	query := `INSERT INTO diff_rate_history (diff_rate_id, diff, rate, created_at) VALUES (?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query, h.DiffRateID, h.Diff, h.Rate, h.CreatedAt)
	if err != nil {
		return err
	}
	h.ID, err = res.LastInsertId()
	return err
}

// ListHistory returns the latest rows first.
func (s *SQLiteStore) ListHistory(ctx context.Context, diffRateID int64, limit int) ([]domain.DiffRateHistory, error) {
	query := `SELECT id, diff_rate_id, diff, rate, created_at FROM diff_rate_history WHERE diff_rate_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, diffRateID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.DiffRateHistory
	for rows.Next() {
		var h domain.DiffRateHistory
		if err := rows.Scan(&h.ID, &h.DiffRateID, &h.Diff, &h.Rate, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
