package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements the strategy, diff-rate and stable-coin repositories.
// Decimal columns are stored as TEXT to keep exact values.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS strategies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			diff_rate_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			platform TEXT NOT NULL,
			direction TEXT NOT NULL,
			coin TEXT NOT NULL,
			from_market TEXT NOT NULL,
			from_symbol TEXT NOT NULL,
			from_price_truncate INTEGER NOT NULL,
			from_amount_truncate INTEGER NOT NULL,
			to_market TEXT NOT NULL,
			to_symbol TEXT NOT NULL,
			to_price_truncate INTEGER NOT NULL,
			to_amount_truncate INTEGER NOT NULL,
			open_threshold TEXT NOT NULL,
			close_threshold TEXT NOT NULL,
			amount TEXT NOT NULL,
			contract_multiplier TEXT NOT NULL,
			margin_multiplier TEXT NOT NULL,
			fok_diff TEXT NOT NULL,
			spot_fee TEXT NOT NULL,
			futures_fee TEXT NOT NULL,
			delivery_fee TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'not_started',
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_strategies_status ON strategies(status);`,
		`CREATE TABLE IF NOT EXISTS strategy_steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			strategy_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			leg TEXT NOT NULL,
			market TEXT NOT NULL,
			symbol TEXT NOT NULL,
			status TEXT NOT NULL,
			target_amount TEXT NOT NULL,
			executed_amount TEXT NOT NULL,
			order_id TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL,
			UNIQUE (strategy_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS step_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			strategy_id INTEGER NOT NULL,
			step_id INTEGER NOT NULL,
			leg TEXT NOT NULL,
			market TEXT NOT NULL,
			symbol TEXT NOT NULL,
			price TEXT NOT NULL,
			amount TEXT NOT NULL,
			executed_amount TEXT NOT NULL,
			order_id TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (market, symbol, order_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_step_records_strategy ON step_records(strategy_id);`,
		`CREATE TABLE IF NOT EXISTS diff_rates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			platform TEXT NOT NULL,
			coin TEXT NOT NULL,
			direction TEXT NOT NULL,
			from_market TEXT NOT NULL,
			from_symbol TEXT NOT NULL,
			to_market TEXT NOT NULL,
			to_symbol TEXT NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT 1
		);`,
		`CREATE TABLE IF NOT EXISTS diff_rate_snapshots (
			diff_rate_id INTEGER PRIMARY KEY,
			from_price TEXT NOT NULL,
			to_price TEXT NOT NULL,
			diff TEXT NOT NULL,
			rate TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS diff_rate_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			diff_rate_id INTEGER NOT NULL,
			diff TEXT NOT NULL,
			rate TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_diff_rate_history_rate ON diff_rate_history(diff_rate_id, id);`,
		`CREATE TABLE IF NOT EXISTS stable_coin_positions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			platform TEXT NOT NULL,
			coin TEXT NOT NULL,
			market TEXT NOT NULL,
			symbol TEXT NOT NULL,
			price_truncate INTEGER NOT NULL,
			amount_truncate INTEGER NOT NULL,
			kind TEXT NOT NULL,
			open_threshold TEXT NOT NULL,
			close_threshold TEXT NOT NULL,
			amount TEXT NOT NULL,
			fok_diff TEXT NOT NULL,
			status TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS stable_coin_trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			position_id INTEGER NOT NULL,
			side TEXT NOT NULL,
			price TEXT NOT NULL,
			amount TEXT NOT NULL,
			order_id TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_stable_coin_trades_position ON stable_coin_trades(position_id, id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}
