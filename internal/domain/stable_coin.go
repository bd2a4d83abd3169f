package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type HedgingKind string

const (
	HedgingBand           HedgingKind = "band"
	HedgingPercentage     HedgingKind = "percentage"
	HedgingFixedThreshold HedgingKind = "fixed_threshold"
)

type PositionStatus string

const (
	PositionRunning PositionStatus = "running"
	PositionStopped PositionStatus = "stopped"
)

// StableCoinPosition is a hedging instrument traded on the spot market.
type StableCoinPosition struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Platform       string          `json:"platform"`
	Coin           string          `json:"coin"`
	Market         Market          `json:"market"`
	Symbol         string          `json:"symbol"`
	PriceTruncate  int32           `json:"price_truncate"`
	AmountTruncate int32           `json:"amount_truncate"`
	Kind           HedgingKind     `json:"kind"`
	OpenThreshold  decimal.Decimal `json:"open_threshold"`
	CloseThreshold decimal.Decimal `json:"close_threshold"`
	Amount         decimal.Decimal `json:"amount"`
	FokDiff        decimal.Decimal `json:"fok_diff"`
	Status         PositionStatus  `json:"status"`
}

type StableCoinTrade struct {
	ID         int64           `json:"id"`
	PositionID int64           `json:"position_id"`
	Side       OrderSide       `json:"option_type"`
	Price      decimal.Decimal `json:"price"`
	Amount     decimal.Decimal `json:"amount"`
	OrderID    string          `json:"order_id"`
	Status     OrderStatus     `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}
