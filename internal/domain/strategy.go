package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionReverse  Direction = "reverse"
)

type Market string

const (
	MarketSpot     Market = "spot"
	MarketFutures  Market = "futures"  // USD-margined perpetuals
	MarketDelivery Market = "delivery" // coin-margined contracts
	MarketTransfer Market = "transfer"
)

// Leg is one kind of action in an execution plan.
type Leg string

const (
	LegSpotBuy                Leg = "spot_buy"
	LegSpotSell               Leg = "spot_sell"
	LegTransferSpotToDelivery Leg = "transfer_spot_to_delivery"
	LegTransferDeliveryToSpot Leg = "transfer_delivery_to_spot"
	LegDeliveryBuy            Leg = "delivery_buy"
	LegDeliverySell           Leg = "delivery_sell"
	LegFuturesBuy             Leg = "futures_buy"
	LegFuturesSell            Leg = "futures_sell"
)

func (l Leg) IsTransfer() bool {
	return l == LegTransferSpotToDelivery || l == LegTransferDeliveryToSpot
}

// Side returns the order side of an order leg. Transfers have no side.
func (l Leg) Side() OrderSide {
	switch l {
	case LegSpotBuy, LegDeliveryBuy, LegFuturesBuy:
		return OrderSideBuy
	case LegSpotSell, LegDeliverySell, LegFuturesSell:
		return OrderSideSell
	}
	return ""
}

type StrategyStatus string

const (
	StrategyNotStarted StrategyStatus = "not_started"
	StrategyRunning    StrategyStatus = "running"
	StrategyDone       StrategyStatus = "done"
)

type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepDone    StepStatus = "done"
)

type RecordStatus string

const (
	RecordPending RecordStatus = "pending"
	RecordDone    RecordStatus = "done"
	RecordExpired RecordStatus = "expired"
)

// Strategy is an arbitrage between a "from" and a "to" instrument.
// Precisions are numbers of decimal places.
type Strategy struct {
	ID                 int64           `json:"id"`
	DiffRateID         int64           `json:"diff_rate_id"`
	UserID             int64           `json:"user_id"`
	Platform           string          `json:"platform"`
	Direction          Direction       `json:"direction"`
	Coin               string          `json:"coin"`
	FromMarket         Market          `json:"from_market"`
	FromSymbol         string          `json:"from_symbol"`
	FromPriceTruncate  int32           `json:"from_price_truncate"`
	FromAmountTruncate int32           `json:"from_amount_truncate"`
	ToMarket           Market          `json:"to_market"`
	ToSymbol           string          `json:"to_symbol"`
	ToPriceTruncate    int32           `json:"to_price_truncate"`
	ToAmountTruncate   int32           `json:"to_amount_truncate"`
	OpenThreshold      decimal.Decimal `json:"open_threshold"`
	CloseThreshold     decimal.Decimal `json:"close_threshold"`
	Amount             decimal.Decimal `json:"amount"`
	ContractMultiplier decimal.Decimal `json:"contract_multiplier"`
	MarginMultiplier   decimal.Decimal `json:"margin_multiplier"`
	FokDiff            decimal.Decimal `json:"fok_diff"`
	SpotFee            decimal.Decimal `json:"spot_fee"`
	FuturesFee         decimal.Decimal `json:"futures_fee"`
	DeliveryFee        decimal.Decimal `json:"delivery_fee"`
	Status             StrategyStatus  `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
}

// StepDescriptor is one entry of an execution plan.
type StepDescriptor struct {
	Leg    Leg
	Market Market
	Symbol string
}

// StrategyStep is a persisted plan entry. Seq is its position in the plan.
type StrategyStep struct {
	ID             int64           `json:"id"`
	StrategyID     int64           `json:"strategy_id"`
	Seq            int             `json:"seq"`
	Leg            Leg             `json:"leg"`
	Market         Market          `json:"market"`
	Symbol         string          `json:"symbol"`
	Status         StepStatus      `json:"status"`
	TargetAmount   decimal.Decimal `json:"target_amount"`
	ExecutedAmount decimal.Decimal `json:"executed_amount"`
	OrderID        string          `json:"order_id"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// StepUpdate overwrites the mutable fields of a step.
type StepUpdate struct {
	ID             int64
	Status         StepStatus
	ExecutedAmount decimal.Decimal
	OrderID        string
}

// StepExecutionRecord audits one order or transfer attempt.
type StepExecutionRecord struct {
	ID             int64           `json:"id"`
	StrategyID     int64           `json:"strategy_id"`
	StepID         int64           `json:"step_id"`
	Leg            Leg             `json:"leg"`
	Market         Market          `json:"market"`
	Symbol         string          `json:"symbol"`
	Price          decimal.Decimal `json:"price"`
	Amount         decimal.Decimal `json:"amount"`
	ExecutedAmount decimal.Decimal `json:"executed_amount"`
	OrderID        string          `json:"order_id"`
	Status         RecordStatus    `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// RecordUpdate resolves the pending record of a step by its order id.
// Exchange order ids are only unique per market and symbol.
type RecordUpdate struct {
	StepID         int64
	OrderID        string
	Status         RecordStatus
	ExecutedAmount decimal.Decimal
}
