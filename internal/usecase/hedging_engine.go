package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vitos/crypto_arbitrage/internal/domain"
	"go.uber.org/zap"
)

const (
	bandPeriod = 20
	bandStdDev = 2.0
)

var one = decimal.NewFromInt(1)

// HedgingEngine trades stable coins back to the peg: buy at the lower band below 1,
// sell the open buy at the upper band.
type HedgingEngine struct {
	repo     domain.StableCoinRepository
	exchange domain.Exchange
	klines   *KlineWindow
	logger   *zap.Logger
}

func NewHedgingEngine(repo domain.StableCoinRepository, exchange domain.Exchange, klines *KlineWindow, logger *zap.Logger) *HedgingEngine {
	return &HedgingEngine{
		repo:     repo,
		exchange: exchange,
		klines:   klines,
		logger:   logger,
	}
}

func (h *HedgingEngine) Handle(ctx context.Context, pos domain.StableCoinPosition) error {
	_, err := h.Evaluate(ctx, pos)
	if err != nil {
		return fmt.Errorf("position %d: %w", pos.ID, err)
	}
	return nil
}

// Evaluate returns the trade placed on this pass, or nil when there is no signal.
func (h *HedgingEngine) Evaluate(ctx context.Context, pos domain.StableCoinPosition) (*domain.StableCoinTrade, error) {
	if pos.Kind != domain.HedgingBand {
		h.logger.Debug("Hedging kind not supported, skipping", zap.Int64("position_id", pos.ID), zap.String("kind", string(pos.Kind)))
		return nil, nil
	}

	candles, err := h.klines.Load(ctx, pos.Symbol)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, nil
	}

	upper, lower := Bands(candles, bandPeriod, bandStdDev, pos.PriceTruncate)
	last := candles[len(candles)-1].Close.Truncate(pos.PriceTruncate)

	latest, err := h.repo.LatestFilledTrade(ctx, pos.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest filled trade: %w", err)
	}
	openBuy := OpenBuy(latest)

	var (
		side   domain.OrderSide
		amount decimal.Decimal
	)
	switch {
	case openBuy == nil && last.LessThan(one) && last.LessThanOrEqual(lower):
		side, amount = domain.OrderSideBuy, pos.Amount.Truncate(pos.AmountTruncate)
	case openBuy != nil && last.GreaterThanOrEqual(upper):
		side, amount = domain.OrderSideSell, openBuy.Amount
	default:
		return nil, nil
	}

	price := limitPrice(last, pos.FokDiff, side == domain.OrderSideBuy, pos.PriceTruncate)
	market := pos.Market
	if market == "" {
		market = domain.MarketSpot
	}

	res, err := h.exchange.PlaceOrder(ctx, domain.OrderRequest{
		Market:   market,
		Symbol:   pos.Symbol,
		Side:     side,
		Price:    price,
		Quantity: amount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to place %s order: %w", side, err)
	}

	trade := &domain.StableCoinTrade{
		PositionID: pos.ID,
		Side:       side,
		Price:      price,
		Amount:     amount,
		OrderID:    res.OrderID,
		Status:     res.Status,
	}
	if err := h.repo.InsertTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to insert trade for order %s: %w", res.OrderID, err)
	}

	h.logger.Warn("Hedging order placed",
		zap.Int64("position_id", pos.ID),
		zap.String("side", string(side)),
		zap.String("last", last.String()),
		zap.String("upper", upper.String()),
		zap.String("lower", lower.String()),
		zap.String("price", price.String()),
		zap.String("amount", amount.String()),
		zap.String("status", string(res.Status)))
	return trade, nil
}

// OpenBuy returns the buy currently held given the latest filled trade.
// A filled sell closes the position; unfilled orders never change it.
func OpenBuy(latestFilled *domain.StableCoinTrade) *domain.StableCoinTrade {
	if latestFilled == nil || !latestFilled.Status.Filled() || latestFilled.Side != domain.OrderSideBuy {
		return nil
	}
	return latestFilled
}
