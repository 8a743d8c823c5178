package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CalculateTripCost computes the UF amount owed to the contractor operating
// one trip: a single vehicle movement carrying one load directly, or two
// linked loads as a consolidated trip (pickup leg then main haul).
//
// The fuel adjustment factor derived from the cycle's fuel price and the
// tariff's contractual base price applies uniformly to every leg. Each
// leg's billable weight is floored at the tariff's guaranteed minimum.
//
// Loads must be given in pickup order. Consolidated trips are supported for
// exactly two loads; three or more chained loads are rejected rather than
// priced with guessed semantics.
func CalculateTripCost(loads []Load, routes RouteIndex, tariff *TariffRule, cycle EconomicCycle) (TripCostResult, error) {
	if len(loads) == 0 {
		return TripCostResult{}, Errorf(KindEmptyLoadList, "trip cost requested for an empty load list")
	}
	if tariff == nil {
		return TripCostResult{}, Errorf(KindMissingTariff, "trip cost requires a contractor tariff rule")
	}

	factor, err := FuelFactor(cycle.FuelPrice, tariff.BaseFuelPrice)
	if err != nil {
		return TripCostResult{}, err
	}

	if len(loads) == 1 {
		return singleTripCost(loads[0], routes, tariff, factor)
	}
	return consolidatedTripCost(loads, routes, tariff, factor)
}

// legCost prices one leg: base_rate * km * billable_weight * fuel_factor.
func legCost(tariff *TariffRule, distanceKm, billableWeight, factor decimal.Decimal) decimal.Decimal {
	return tariff.BaseRatePerTonKm.Mul(distanceKm).Mul(billableWeight).Mul(factor)
}

// billableWeight floors the actual weight at the guaranteed minimum.
func billableWeight(actual, minimum decimal.Decimal) decimal.Decimal {
	if actual.LessThan(minimum) {
		return minimum
	}
	return actual
}

func singleTripCost(load Load, routes RouteIndex, tariff *TariffRule, factor decimal.Decimal) (TripCostResult, error) {
	route, err := routes.Lookup(load.OriginID, load.DestinationID, false)
	if err != nil {
		return TripCostResult{}, err
	}

	weight := billableWeight(load.NetWeightTons, tariff.MinWeightTons)
	cost := legCost(tariff, route.DistanceKm, weight, factor)

	return TripCostResult{
		TotalCostUF:       cost,
		AdjustmentFactor:  factor,
		AppliedWeightTons: weight,
		Segments: []Segment{
			{Label: fmt.Sprintf("direct %d->%d", load.OriginID, load.DestinationID), AmountUF: cost},
		},
		TotalDistanceKm:        route.DistanceKm,
		ConsolidatedWeightTons: weight,
	}, nil
}

// consolidatedTripCost prices a two-load linked trip: the vehicle collects
// the second load's cargo at an intermediate origin (pickup leg, first load
// only on board), then hauls everything to the final destination (main-haul
// leg, all loads on board). Each leg applies its own guaranteed minimum.
func consolidatedTripCost(loads []Load, routes RouteIndex, tariff *TariffRule, factor decimal.Decimal) (TripCostResult, error) {
	if len(loads) > 2 {
		return TripCostResult{}, Errorf(KindInvalidInput,
			"consolidated trips support exactly two linked loads, got %d", len(loads))
	}

	first, second := loads[0], loads[1]
	finalDest := loads[len(loads)-1].DestinationID

	pickupRoute, err := routes.Lookup(first.OriginID, second.OriginID, true)
	if err != nil {
		return TripCostResult{}, err
	}
	pickupWeight := billableWeight(first.NetWeightTons, tariff.MinWeightTons)
	pickupCost := legCost(tariff, pickupRoute.DistanceKm, pickupWeight, factor)

	mainRoute, err := routes.Lookup(second.OriginID, finalDest, false)
	if err != nil {
		return TripCostResult{}, err
	}
	totalWeight := decimal.Zero
	for _, l := range loads {
		totalWeight = totalWeight.Add(l.NetWeightTons)
	}
	mainWeight := billableWeight(totalWeight, tariff.MinWeightTons)
	mainCost := legCost(tariff, mainRoute.DistanceKm, mainWeight, factor)

	return TripCostResult{
		TotalCostUF:       pickupCost.Add(mainCost),
		AdjustmentFactor:  factor,
		AppliedWeightTons: mainWeight,
		Segments: []Segment{
			{Label: fmt.Sprintf("pickup %d->%d", first.OriginID, second.OriginID), AmountUF: pickupCost},
			{Label: fmt.Sprintf("main haul %d->%d", second.OriginID, finalDest), AmountUF: mainCost},
		},
		TotalDistanceKm:        pickupRoute.DistanceKm.Add(mainRoute.DistanceKm),
		ConsolidatedWeightTons: mainWeight,
	}, nil
}
