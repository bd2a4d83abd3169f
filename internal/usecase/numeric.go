package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ContractCount converts a base amount into coin-margined contracts:
// ceil(base * price / multiplier) - 1.
func ContractCount(base, price, multiplier decimal.Decimal) (decimal.Decimal, error) {
	if !multiplier.IsPositive() {
		return decimal.Zero, fmt.Errorf("contract multiplier must be positive, got %s", multiplier)
	}
	return base.Mul(price).Div(multiplier).Ceil().Sub(decimal.NewFromInt(1)), nil
}

// afterFee returns amount * (1 - fee) truncated to places.
func afterFee(amount, fee decimal.Decimal, places int32) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(1).Sub(fee)).Truncate(places)
}

// limitPrice offsets ref by diff towards the aggressive side: up for buys, down for sells.
func limitPrice(ref, diff decimal.Decimal, buy bool, places int32) decimal.Decimal {
	if buy {
		return ref.Add(diff).Truncate(places)
	}
	return ref.Sub(diff).Truncate(places)
}
