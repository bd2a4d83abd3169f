package usecase

import (
	"fmt"

	"github.com/vitos/crypto_arbitrage/internal/domain"
)

type venue int

const (
	venueFrom venue = iota
	venueTo
	venueCoin
)

type planEntry struct {
	leg   domain.Leg
	venue venue
}

var (
	positivePlan = []planEntry{
		{domain.LegSpotBuy, venueFrom},
		{domain.LegTransferSpotToDelivery, venueCoin},
		{domain.LegDeliverySell, venueTo},
		{domain.LegDeliveryBuy, venueTo},
		{domain.LegTransferDeliveryToSpot, venueCoin},
		{domain.LegSpotSell, venueFrom},
	}
	reverseFuturesPlan = []planEntry{
		{domain.LegFuturesBuy, venueFrom},
		{domain.LegFuturesSell, venueTo},
		{domain.LegFuturesBuy, venueTo},
		{domain.LegFuturesSell, venueFrom},
	}
	reverseDeliveryPlan = []planEntry{
		{domain.LegDeliveryBuy, venueFrom},
		{domain.LegDeliverySell, venueTo},
		{domain.LegDeliveryBuy, venueTo},
		{domain.LegDeliverySell, venueFrom},
	}
)

// ExpectedStepCount is the fixed plan length for a direction, 0 if unknown.
func ExpectedStepCount(d domain.Direction) int {
	switch d {
	case domain.DirectionPositive:
		return len(positivePlan)
	case domain.DirectionReverse:
		return len(reverseFuturesPlan)
	}
	return 0
}

// OpenLegCount is the number of leading legs that open the position.
// The remaining legs close it.
func OpenLegCount(d domain.Direction) int {
	return ExpectedStepCount(d) / 2
}

func planFor(st domain.Strategy) ([]planEntry, error) {
	if st.Coin == "" || st.FromSymbol == "" || st.ToSymbol == "" {
		return nil, fmt.Errorf("strategy %d is missing coin or symbols: %w", st.ID, domain.ErrUnsupportedPlan)
	}

	switch {
	case st.Direction == domain.DirectionPositive &&
		st.FromMarket == domain.MarketSpot && st.ToMarket == domain.MarketDelivery:
		return positivePlan, nil
	case st.Direction == domain.DirectionReverse &&
		st.FromMarket == domain.MarketFutures && st.ToMarket == domain.MarketFutures:
		return reverseFuturesPlan, nil
	case st.Direction == domain.DirectionReverse &&
		st.FromMarket == domain.MarketDelivery && st.ToMarket == domain.MarketDelivery:
		return reverseDeliveryPlan, nil
	}
	return nil, fmt.Errorf("strategy %d: %s %s->%s: %w",
		st.ID, st.Direction, st.FromMarket, st.ToMarket, domain.ErrUnsupportedPlan)
}

// BuildPlan returns the ordered legs a strategy executes.
func BuildPlan(st domain.Strategy) ([]domain.StepDescriptor, error) {
	plan, err := planFor(st)
	if err != nil {
		return nil, err
	}

	descriptors := make([]domain.StepDescriptor, len(plan))
	for i, e := range plan {
		d := domain.StepDescriptor{Leg: e.leg}
		switch e.venue {
		case venueFrom:
			d.Market, d.Symbol = st.FromMarket, st.FromSymbol
		case venueTo:
			d.Market, d.Symbol = st.ToMarket, st.ToSymbol
		case venueCoin:
			d.Market, d.Symbol = domain.MarketTransfer, st.Coin
		}
		descriptors[i] = d
	}
	return descriptors, nil
}
