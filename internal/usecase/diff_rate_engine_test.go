package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_arbitrage/internal/domain"
	"github.com/vitos/crypto_arbitrage/internal/usecase"
	"go.uber.org/zap"
)

func TestComputeRate(t *testing.T) {
	tests := []struct {
		name      string
		direction domain.Direction
		from, to  string
		wantDiff  string
		wantRate  string
	}{
		{"positive premium", domain.DirectionPositive, "1.0000", "1.0600", "0.06", "0.06"},
		{"positive truncates to 4 places", domain.DirectionPositive, "3", "3.1", "0.1", "0.0333"},
		{"reverse uses to as divisor", domain.DirectionReverse, "2050", "2000", "50", "0.025"},
		{"negative rate truncates toward zero", domain.DirectionPositive, "3", "2.9", "-0.1", "-0.0333"},
		{"zero divisor", domain.DirectionPositive, "0", "1.06", "1.06", "0"},
		{"reverse zero divisor", domain.DirectionReverse, "1", "0", "1", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff, rate := usecase.ComputeRate(tt.direction, dec(tt.from), dec(tt.to))
			assert.True(t, diff.Equal(dec(tt.wantDiff)), "diff = %s", diff)
			assert.True(t, rate.Equal(dec(tt.wantRate)), "rate = %s", rate)
		})
	}
}

func newEngineFixture() (*usecase.DiffRateEngine, *MockDiffRateRepo, *MockPriceCache) {
	repo := &MockDiffRateRepo{
		Rates: []domain.DiffRate{{
			ID: 1, Direction: domain.DirectionPositive, Enabled: true,
			FromMarket: domain.MarketSpot, FromSymbol: "BTCUSDT",
			ToMarket: domain.MarketDelivery, ToSymbol: "BTCUSD_PERP",
		}},
		Snapshots: map[int64]domain.DiffRateSnapshot{},
	}
	prices := &MockPriceCache{Prices: map[string]decimal.Decimal{}}
	return usecase.NewDiffRateEngine(repo, prices, zap.NewNop()), repo, prices
}

func TestDiffRateEngine_HistoryIsEdgeTriggered(t *testing.T) {
	engine, repo, prices := newEngineFixture()
	ctx := context.Background()

	set := func(from, to string) {
		prices.Prices["spot:BTCUSDT"] = dec(from)
		prices.Prices["delivery:BTCUSD_PERP"] = dec(to)
	}

	set("100", "106")
	engine.Tick(ctx)
	engine.Tick(ctx)
	// 0.0604 and 0.0609 both persist as 0.060.
	set("100", "106.04")
	engine.Tick(ctx)
	set("100", "106.09")
	engine.Tick(ctx)
	set("100", "107")
	engine.Tick(ctx)
	set("100", "106")
	engine.Tick(ctx)

	require.Len(t, repo.History, 3)
	assert.Equal(t, "0.06", repo.History[0].Rate.String())
	assert.Equal(t, "0.07", repo.History[1].Rate.String())
	assert.Equal(t, "0.06", repo.History[2].Rate.String())
	for i := 1; i < len(repo.History); i++ {
		assert.False(t, repo.History[i].Rate.Equal(repo.History[i-1].Rate))
	}

	snap := repo.Snapshots[1]
	assert.Equal(t, "106", snap.ToPrice.String())
	assert.Equal(t, "0.06", snap.Rate.String())
}

func TestDiffRateEngine_SnapshotAlwaysUpserted(t *testing.T) {
	engine, repo, prices := newEngineFixture()
	ctx := context.Background()
	prices.Prices["spot:BTCUSDT"] = dec("100")
	prices.Prices["delivery:BTCUSD_PERP"] = dec("106.01")

	_, err := engine.Evaluate(ctx, repo.Rates[0])
	require.NoError(t, err)

	prices.Prices["delivery:BTCUSD_PERP"] = dec("106.02")
	snap, err := engine.Evaluate(ctx, repo.Rates[0])
	require.NoError(t, err)

	assert.Len(t, repo.History, 1)
	assert.Equal(t, "106.02", repo.Snapshots[1].ToPrice.String())
	assert.Equal(t, "6.02", snap.Diff.String())
	assert.Equal(t, "0.06", snap.Rate.String())
}

func TestDiffRateEngine_MissingPriceIsZero(t *testing.T) {
	engine, repo, prices := newEngineFixture()
	prices.Prices["delivery:BTCUSD_PERP"] = dec("106")

	snap, err := engine.Evaluate(context.Background(), repo.Rates[0])
	require.NoError(t, err)
	assert.True(t, snap.FromPrice.IsZero())
	assert.True(t, snap.Rate.IsZero())
}

func TestDiffRateEngine_FailedHistoryIsRetried(t *testing.T) {
	engine, repo, prices := newEngineFixture()
	ctx := context.Background()
	prices.Prices["spot:BTCUSDT"] = dec("100")
	prices.Prices["delivery:BTCUSD_PERP"] = dec("106")

	repo.HistoryErr = errors.New("disk full")
	_, err := engine.Evaluate(ctx, repo.Rates[0])
	require.Error(t, err)

	repo.HistoryErr = nil
	_, err = engine.Evaluate(ctx, repo.Rates[0])
	require.NoError(t, err)
	assert.Len(t, repo.History, 1, "the change is logged once the store recovers")
}

func TestDiffRateEngine_CacheErrorSkipsPair(t *testing.T) {
	engine, repo, prices := newEngineFixture()
	prices.Err = errors.New("connection refused")

	engine.Tick(context.Background())
	assert.Empty(t, repo.History)
	assert.Empty(t, repo.Snapshots)
}
