package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vitos/crypto_arbitrage/internal/domain"
)

func (s *SQLiteStore) CreatePosition(ctx context.Context, p *domain.StableCoinPosition) error {
	query := `INSERT INTO stable_coin_positions (user_id, platform, coin, market, symbol, price_truncate, amount_truncate,
			kind, open_threshold, close_threshold, amount, fok_diff, status)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		p.UserID, p.Platform, p.Coin, p.Market, p.Symbol, p.PriceTruncate, p.AmountTruncate,
		p.Kind, p.OpenThreshold, p.CloseThreshold, p.Amount, p.FokDiff, p.Status)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) ListPositionsByStatus(ctx context.Context, status domain.PositionStatus) ([]domain.StableCoinPosition, error) {
	query := `SELECT id, user_id, platform, coin, market, symbol, price_truncate, amount_truncate,
			kind, open_threshold, close_threshold, amount, fok_diff, status
			  FROM stable_coin_positions WHERE status = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []domain.StableCoinPosition
	for rows.Next() {
		var p domain.StableCoinPosition
		if err := rows.Scan(&p.ID, &p.UserID, &p.Platform, &p.Coin, &p.Market, &p.Symbol, &p.PriceTruncate, &p.AmountTruncate,
			&p.Kind, &p.OpenThreshold, &p.CloseThreshold, &p.Amount, &p.FokDiff, &p.Status); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *SQLiteStore) InsertTrade(ctx context.Context, t *domain.StableCoinTrade) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	query := `INSERT INTO stable_coin_trades (position_id, side, price, amount, order_id, status, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query, t.PositionID, t.Side, t.Price, t.Amount, t.OrderID, t.Status, t.CreatedAt)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) ListRecentTrades(ctx context.Context, positionID int64, limit int) ([]domain.StableCoinTrade, error) {
	query := `SELECT id, position_id, side, price, amount, order_id, status, created_at
			  FROM stable_coin_trades WHERE position_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, positionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.StableCoinTrade
	for rows.Next() {
		var t domain.StableCoinTrade
		if err := rows.Scan(&t.ID, &t.PositionID, &t.Side, &t.Price, &t.Amount, &t.OrderID, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (s *SQLiteStore) LatestFilledTrade(ctx context.Context, positionID int64) (*domain.StableCoinTrade, error) {
	query := `SELECT id, position_id, side, price, amount, order_id, status, created_at
			  FROM stable_coin_trades WHERE position_id = ? AND status = ? ORDER BY id DESC LIMIT 1`
	var t domain.StableCoinTrade
	err := s.db.QueryRowContext(ctx, query, positionID, domain.OrderFilled).
		Scan(&t.ID, &t.PositionID, &t.Side, &t.Price, &t.Amount, &t.OrderID, &t.Status, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func expectRow(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}
