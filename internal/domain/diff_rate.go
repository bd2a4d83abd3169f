package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiffRate is a tracked pair of instruments.
type DiffRate struct {
	ID         int64     `json:"id"`
	Platform   string    `json:"platform"`
	Coin       string    `json:"coin"`
	Direction  Direction `json:"direction"`
	FromMarket Market    `json:"from_market"`
	FromSymbol string    `json:"from_symbol"`
	ToMarket   Market    `json:"to_market"`
	ToSymbol   string    `json:"to_symbol"`
	Enabled    bool      `json:"enabled"`
}

type DiffRateSnapshot struct {
	DiffRateID int64           `json:"diff_rate_id"`
	FromPrice  decimal.Decimal `json:"from_price"`
	ToPrice    decimal.Decimal `json:"to_price"`
	Diff       decimal.Decimal `json:"diff"`
	Rate       decimal.Decimal `json:"rate"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type DiffRateHistory struct {
	ID         int64           `json:"id"`
	DiffRateID int64           `json:"diff_rate_id"`
	Diff       decimal.Decimal `json:"diff"`
	Rate       decimal.Decimal `json:"rate"`
	CreatedAt  time.Time       `json:"created_at"`
}
