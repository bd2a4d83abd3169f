package domain

import "github.com/shopspring/decimal"

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

type OrderStatus string

const (
	OrderNew             OrderStatus = "NEW"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderFilled          OrderStatus = "FILLED"
	OrderCanceled        OrderStatus = "CANCELED"
	OrderRejected        OrderStatus = "REJECTED"
	OrderExpired         OrderStatus = "EXPIRED"
)

func (s OrderStatus) Filled() bool {
	return s == OrderFilled
}

// OrderRequest is a fill-or-kill limit order.
type OrderRequest struct {
	Market        Market
	Symbol        string
	Side          OrderSide
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	ClientOrderID string
}

type OrderResult struct {
	OrderID     string          `json:"order_id"`
	Symbol      string          `json:"symbol"`
	Status      OrderStatus     `json:"status"`
	Price       decimal.Decimal `json:"price"`
	ExecutedQty decimal.Decimal `json:"executed_qty"`
	// CumBase is the filled base-asset quantity, reported by coin-margined contracts.
	CumBase decimal.Decimal `json:"cum_base"`
}

type TransferType string

const (
	TransferSpotToDelivery TransferType = "MAIN_CMFUTURE"
	TransferDeliveryToSpot TransferType = "CMFUTURE_MAIN"
)

type TransferRequest struct {
	Asset  string
	Amount decimal.Decimal
	Type   TransferType
}

type Candle struct {
	OpenTime  int64           `json:"open_time"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	CloseTime int64           `json:"close_time"`
}

// Ticker is a streamed 24h mini ticker. Raw holds the payload as received.
type Ticker struct {
	Symbol string
	Close  decimal.Decimal
	Raw    []byte
}
