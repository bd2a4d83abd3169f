package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Exchange defines the order, transfer and market data calls the engine needs.
type Exchange interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
	GetOrder(ctx context.Context, market Market, symbol, orderID string) (*OrderResult, error)
	Transfer(ctx context.Context, req TransferRequest) (string, error)
	// GetCandles returns candles in ascending open time. startTime 0 means the latest limit candles.
	GetCandles(ctx context.Context, symbol, interval string, limit int, startTime int64) ([]Candle, error)
}

// StrategyRepository defines storage operations for strategies, steps and execution records.
type StrategyRepository interface {
	ListStrategiesByStatus(ctx context.Context, status StrategyStatus) ([]Strategy, error)
	UpdateStrategyStatus(ctx context.Context, id int64, status StrategyStatus) error

	CreateSteps(ctx context.Context, steps []StrategyStep) error
	ListSteps(ctx context.Context, strategyID int64) ([]StrategyStep, error)
	UpdateStep(ctx context.Context, update StepUpdate) error

	InsertRecord(ctx context.Context, record *StepExecutionRecord) error
	UpdateRecord(ctx context.Context, update RecordUpdate) error
	ListRecords(ctx context.Context, strategyID int64) ([]StepExecutionRecord, error)
}

// DiffRateRepository defines storage operations for tracked pairs and their rates.
type DiffRateRepository interface {
	ListEnabledDiffRates(ctx context.Context) ([]DiffRate, error)
	GetSnapshot(ctx context.Context, diffRateID int64) (*DiffRateSnapshot, error)
	ListSnapshots(ctx context.Context) ([]DiffRateSnapshot, error)
	UpsertSnapshot(ctx context.Context, snap *DiffRateSnapshot) error
	InsertHistory(ctx context.Context, h *DiffRateHistory) error
	ListHistory(ctx context.Context, diffRateID int64, limit int) ([]DiffRateHistory, error)
}

// StableCoinRepository defines storage operations for hedging positions and trades.
type StableCoinRepository interface {
	ListPositionsByStatus(ctx context.Context, status PositionStatus) ([]StableCoinPosition, error)
	InsertTrade(ctx context.Context, trade *StableCoinTrade) error
	// ListRecentTrades returns the latest trades first.
	ListRecentTrades(ctx context.Context, positionID int64, limit int) ([]StableCoinTrade, error)
	// LatestFilledTrade returns nil when the position has no filled trade.
	LatestFilledTrade(ctx context.Context, positionID int64) (*StableCoinTrade, error)
}

// PriceCache holds the last streamed ticker per market and symbol.
type PriceCache interface {
	PublishTickers(ctx context.Context, market Market, tickers []Ticker) error
	// GetPrice reports false when no ticker has been published for the symbol.
	GetPrice(ctx context.Context, market Market, symbol string) (decimal.Decimal, bool, error)
}

// KlineCache persists candle windows by key.
type KlineCache interface {
	Get(ctx context.Context, key string) ([]Candle, bool, error)
	Put(ctx context.Context, key string, candles []Candle) error
}
