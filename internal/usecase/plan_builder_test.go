package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_arbitrage/internal/domain"
	"github.com/vitos/crypto_arbitrage/internal/usecase"
)

func positiveStrategy() domain.Strategy {
	return domain.Strategy{
		ID:                 1,
		DiffRateID:         10,
		Direction:          domain.DirectionPositive,
		Coin:               "BTC",
		FromMarket:         domain.MarketSpot,
		FromSymbol:         "BTCUSDT",
		FromPriceTruncate:  2,
		FromAmountTruncate: 3,
		ToMarket:           domain.MarketDelivery,
		ToSymbol:           "BTCUSD_PERP",
		ToPriceTruncate:    1,
		ToAmountTruncate:   4,
		OpenThreshold:      dec("0.05"),
		CloseThreshold:     dec("0.01"),
		Amount:             dec("1"),
		ContractMultiplier: dec("10"),
		MarginMultiplier:   dec("1"),
		FokDiff:            dec("0.5"),
		SpotFee:            dec("0.001"),
		DeliveryFee:        dec("0.0005"),
		Status:             domain.StrategyRunning,
	}
}

func reverseStrategy(market domain.Market) domain.Strategy {
	return domain.Strategy{
		ID:                 2,
		DiffRateID:         20,
		Direction:          domain.DirectionReverse,
		Coin:               "ETH",
		FromMarket:         market,
		FromSymbol:         "ETHUSDT",
		FromPriceTruncate:  2,
		FromAmountTruncate: 3,
		ToMarket:           market,
		ToSymbol:           "ETHUSDT_250328",
		ToPriceTruncate:    2,
		ToAmountTruncate:   3,
		OpenThreshold:      dec("-0.02"),
		CloseThreshold:     dec("0"),
		Amount:             dec("2"),
		MarginMultiplier:   dec("1"),
		FokDiff:            dec("1"),
		Status:             domain.StrategyRunning,
	}
}

func TestBuildPlan_Positive(t *testing.T) {
	plan, err := usecase.BuildPlan(positiveStrategy())
	require.NoError(t, err)

	want := []domain.StepDescriptor{
		{Leg: domain.LegSpotBuy, Market: domain.MarketSpot, Symbol: "BTCUSDT"},
		{Leg: domain.LegTransferSpotToDelivery, Market: domain.MarketTransfer, Symbol: "BTC"},
		{Leg: domain.LegDeliverySell, Market: domain.MarketDelivery, Symbol: "BTCUSD_PERP"},
		{Leg: domain.LegDeliveryBuy, Market: domain.MarketDelivery, Symbol: "BTCUSD_PERP"},
		{Leg: domain.LegTransferDeliveryToSpot, Market: domain.MarketTransfer, Symbol: "BTC"},
		{Leg: domain.LegSpotSell, Market: domain.MarketSpot, Symbol: "BTCUSDT"},
	}
	assert.Equal(t, want, plan)
	assert.Equal(t, len(plan), usecase.ExpectedStepCount(domain.DirectionPositive))
}

func TestBuildPlan_Reverse(t *testing.T) {
	tests := []struct {
		market domain.Market
		buy    domain.Leg
		sell   domain.Leg
	}{
		{domain.MarketFutures, domain.LegFuturesBuy, domain.LegFuturesSell},
		{domain.MarketDelivery, domain.LegDeliveryBuy, domain.LegDeliverySell},
	}

	for _, tt := range tests {
		t.Run(string(tt.market), func(t *testing.T) {
			plan, err := usecase.BuildPlan(reverseStrategy(tt.market))
			require.NoError(t, err)
			require.Len(t, plan, usecase.ExpectedStepCount(domain.DirectionReverse))

			assert.Equal(t, domain.StepDescriptor{Leg: tt.buy, Market: tt.market, Symbol: "ETHUSDT"}, plan[0])
			assert.Equal(t, domain.StepDescriptor{Leg: tt.sell, Market: tt.market, Symbol: "ETHUSDT_250328"}, plan[1])
			assert.Equal(t, domain.StepDescriptor{Leg: tt.buy, Market: tt.market, Symbol: "ETHUSDT_250328"}, plan[2])
			assert.Equal(t, domain.StepDescriptor{Leg: tt.sell, Market: tt.market, Symbol: "ETHUSDT"}, plan[3])
		})
	}
}

func TestBuildPlan_Unsupported(t *testing.T) {
	mixed := reverseStrategy(domain.MarketFutures)
	mixed.ToMarket = domain.MarketDelivery

	positiveOnFutures := positiveStrategy()
	positiveOnFutures.FromMarket = domain.MarketFutures

	unknown := positiveStrategy()
	unknown.Direction = "sideways"

	noSymbol := positiveStrategy()
	noSymbol.ToSymbol = ""

	for name, st := range map[string]domain.Strategy{
		"mixed reverse markets": mixed,
		"positive on futures":   positiveOnFutures,
		"unknown direction":     unknown,
		"missing symbol":        noSymbol,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := usecase.BuildPlan(st)
			assert.ErrorIs(t, err, domain.ErrUnsupportedPlan)
		})
	}
}

func TestOpenLegCount(t *testing.T) {
	assert.Equal(t, 3, usecase.OpenLegCount(domain.DirectionPositive))
	assert.Equal(t, 2, usecase.OpenLegCount(domain.DirectionReverse))
	assert.Equal(t, 0, usecase.ExpectedStepCount("unknown"))
}
