package finance

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// FuelFactor computes the multiplicative tariff adjustment for fuel price
// drift from the contractual reference price:
//
//	factor = 1 + (current - base) / base
//
// A base of 1000 and a current price of 1200 yields 1.2 (costs scale up
// 20%); 800 yields 0.8. The current price is accepted as any real number;
// plausibility checks on it are the caller's responsibility. A non-positive
// base price makes the formula undefined and fails with
// KindInvalidFuelPrice.
func FuelFactor(currentFuelPrice, baseFuelPrice decimal.Decimal) (decimal.Decimal, error) {
	if !baseFuelPrice.IsPositive() {
		return decimal.Zero, Errorf(KindInvalidFuelPrice,
			"base fuel price must be positive, got %s: cannot compute adjustment factor", baseFuelPrice)
	}
	delta := currentFuelPrice.Sub(baseFuelPrice)
	return one.Add(delta.Div(baseFuelPrice)), nil
}
