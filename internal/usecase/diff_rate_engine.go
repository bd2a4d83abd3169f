package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitos/crypto_arbitrage/internal/domain"
	"go.uber.org/zap"
)

const (
	ratePlaces          = 4
	persistedRatePlaces = 3
)

// DiffRateEngine computes the price differential of every enabled pair.
// History is written only when the persisted rate changes; the snapshot is always upserted.
type DiffRateEngine struct {
	repo      domain.DiffRateRepository
	prices    domain.PriceCache
	lastRates map[int64]decimal.Decimal
	logger    *zap.Logger
}

func NewDiffRateEngine(repo domain.DiffRateRepository, prices domain.PriceCache, logger *zap.Logger) *DiffRateEngine {
	return &DiffRateEngine{
		repo:      repo,
		prices:    prices,
		lastRates: make(map[int64]decimal.Decimal),
		logger:    logger,
	}
}

func (e *DiffRateEngine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

func (e *DiffRateEngine) Tick(ctx context.Context) {
	pairs, err := e.repo.ListEnabledDiffRates(ctx)
	if err != nil {
		e.logger.Error("Failed to list diff rates", zap.Error(err))
		return
	}
	for _, dr := range pairs {
		if _, err := e.Evaluate(ctx, dr); err != nil {
			e.logger.Error("Failed to evaluate diff rate", zap.Int64("diff_rate_id", dr.ID), zap.Error(err))
		}
	}
}

// ComputeRate returns the differential and its rate truncated to 4 places.
// positive: (to - from) / from. reverse: (from - to) / to. A zero divisor yields a zero rate.
func ComputeRate(d domain.Direction, from, to decimal.Decimal) (diff, rate decimal.Decimal) {
	divisor := from
	diff = to.Sub(from)
	if d == domain.DirectionReverse {
		divisor = to
		diff = from.Sub(to)
	}
	if divisor.IsZero() {
		return diff, decimal.Zero
	}
	return diff, diff.Div(divisor).Truncate(ratePlaces)
}

func (e *DiffRateEngine) Evaluate(ctx context.Context, dr domain.DiffRate) (*domain.DiffRateSnapshot, error) {
	from, err := e.price(ctx, dr.FromMarket, dr.FromSymbol)
	if err != nil {
		return nil, err
	}
	to, err := e.price(ctx, dr.ToMarket, dr.ToSymbol)
	if err != nil {
		return nil, err
	}

	diff, rate := ComputeRate(dr.Direction, from, to)
	rate = rate.Truncate(persistedRatePlaces)

	last, seen := e.lastRates[dr.ID]
	if !seen || !last.Equal(rate) {
		if err := e.repo.InsertHistory(ctx, &domain.DiffRateHistory{DiffRateID: dr.ID, Diff: diff, Rate: rate}); err != nil {
			return nil, fmt.Errorf("failed to insert history: %w", err)
		}
		e.lastRates[dr.ID] = rate
	}

	snap := &domain.DiffRateSnapshot{
		DiffRateID: dr.ID,
		FromPrice:  from,
		ToPrice:    to,
		Diff:       diff,
		Rate:       rate,
		UpdatedAt:  time.Now(),
	}
	if err := e.repo.UpsertSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return snap, nil
}

// price returns zero for symbols without a cached ticker.
func (e *DiffRateEngine) price(ctx context.Context, market domain.Market, symbol string) (decimal.Decimal, error) {
	p, ok, err := e.prices.GetPrice(ctx, market, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read %s %s price: %w", market, symbol, err)
	}
	if !ok {
		return decimal.Zero, nil
	}
	return p, nil
}
