package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/vitos/crypto_arbitrage/internal/domain"
)

const strategyColumns = `id, diff_rate_id, user_id, platform, direction, coin,
	from_market, from_symbol, from_price_truncate, from_amount_truncate,
	to_market, to_symbol, to_price_truncate, to_amount_truncate,
	open_threshold, close_threshold, amount, contract_multiplier, margin_multiplier,
	fok_diff, spot_fee, futures_fee, delivery_fee, status, created_at`

// CreateStrategy inserts a strategy and sets its ID. Strategies are normally created by an operator.
func (s *SQLiteStore) CreateStrategy(ctx context.Context, st *domain.Strategy) error {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now()
	}
	query := `INSERT INTO strategies (diff_rate_id, user_id, platform, direction, coin,
			from_market, from_symbol, from_price_truncate, from_amount_truncate,
			to_market, to_symbol, to_price_truncate, to_amount_truncate,
			open_threshold, close_threshold, amount, contract_multiplier, margin_multiplier,
			fok_diff, spot_fee, futures_fee, delivery_fee, status, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		st.DiffRateID, st.UserID, st.Platform, st.Direction, st.Coin,
		st.FromMarket, st.FromSymbol, st.FromPriceTruncate, st.FromAmountTruncate,
		st.ToMarket, st.ToSymbol, st.ToPriceTruncate, st.ToAmountTruncate,
		st.OpenThreshold, st.CloseThreshold, st.Amount, st.ContractMultiplier, st.MarginMultiplier,
		st.FokDiff, st.SpotFee, st.FuturesFee, st.DeliveryFee, st.Status, st.CreatedAt)
	if err != nil {
		return err
	}
	st.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) ListStrategiesByStatus(ctx context.Context, status domain.StrategyStatus) ([]domain.Strategy, error) {
	query := `SELECT ` + strategyColumns + ` FROM strategies WHERE status = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var strategies []domain.Strategy
	for rows.Next() {
		var st domain.Strategy
		if err := rows.Scan(&st.ID, &st.DiffRateID, &st.UserID, &st.Platform, &st.Direction, &st.Coin,
			&st.FromMarket, &st.FromSymbol, &st.FromPriceTruncate, &st.FromAmountTruncate,
			&st.ToMarket, &st.ToSymbol, &st.ToPriceTruncate, &st.ToAmountTruncate,
			&st.OpenThreshold, &st.CloseThreshold, &st.Amount, &st.ContractMultiplier, &st.MarginMultiplier,
			&st.FokDiff, &st.SpotFee, &st.FuturesFee, &st.DeliveryFee, &st.Status, &st.CreatedAt); err != nil {
			return nil, err
		}
		strategies = append(strategies, st)
	}
	return strategies, rows.Err()
}

func (s *SQLiteStore) UpdateStrategyStatus(ctx context.Context, id int64, status domain.StrategyStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE strategies SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	return expectRow(res, "strategy", id)
}

// CreateSteps inserts the whole plan in one transaction so a strategy never has a partial plan.
func (s *SQLiteStore) CreateSteps(ctx context.Context, steps []domain.StrategyStep) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO strategy_steps (strategy_id, seq, leg, market, symbol, status, target_amount, executed_amount, order_id, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	for _, st := range steps {
		if _, err := tx.ExecContext(ctx, query,
			st.StrategyID, st.Seq, st.Leg, st.Market, st.Symbol, st.Status,
			st.TargetAmount, st.ExecutedAmount, st.OrderID, now); err != nil {
			return fmt.Errorf("failed to insert step %d of strategy %d: %w", st.Seq, st.StrategyID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListSteps(ctx context.Context, strategyID int64) ([]domain.StrategyStep, error) {
	query := `SELECT id, strategy_id, seq, leg, market, symbol, status, target_amount, executed_amount, order_id, updated_at
			  FROM strategy_steps WHERE strategy_id = ? ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, query, strategyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []domain.StrategyStep
	for rows.Next() {
		var st domain.StrategyStep
		if err := rows.Scan(&st.ID, &st.StrategyID, &st.Seq, &st.Leg, &st.Market, &st.Symbol, &st.Status,
			&st.TargetAmount, &st.ExecutedAmount, &st.OrderID, &st.UpdatedAt); err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

func (s *SQLiteStore) UpdateStep(ctx context.Context, u domain.StepUpdate) error {
	query := `UPDATE strategy_steps SET status = ?, executed_amount = ?, order_id = ?, updated_at = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query, u.Status, u.ExecutedAmount, u.OrderID, time.Now(), u.ID)
	if err != nil {
		return err
	}
	return expectRow(res, "step", u.ID)
}

func (s *SQLiteStore) InsertRecord(ctx context.Context, r *domain.StepExecutionRecord) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	query := `INSERT INTO step_records (strategy_id, step_id, leg, market, symbol, price, amount, executed_amount, order_id, status, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		r.StrategyID, r.StepID, r.Leg, r.Market, r.Symbol, r.Price, r.Amount, r.ExecutedAmount, r.OrderID, r.Status, r.CreatedAt)
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) UpdateRecord(ctx context.Context, u domain.RecordUpdate) error {
	query := `UPDATE step_records SET status = ?, executed_amount = ? WHERE step_id = ? AND order_id = ?`
	res, err := s.db.ExecContext(ctx, query, u.Status, u.ExecutedAmount, u.StepID, u.OrderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("record of step %d with order id %s: %w", u.StepID, u.OrderID, domain.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, strategyID int64) ([]domain.StepExecutionRecord, error) {
	query := `SELECT id, strategy_id, step_id, leg, market, symbol, price, amount, executed_amount, order_id, status, created_at
			  FROM step_records WHERE strategy_id = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, strategyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.StepExecutionRecord
	for rows.Next() {
		var r domain.StepExecutionRecord
		if err := rows.Scan(&r.ID, &r.StrategyID, &r.StepID, &r.Leg, &r.Market, &r.Symbol,
			&r.Price, &r.Amount, &r.ExecutedAmount, &r.OrderID, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
