package finance

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testTariff(t *testing.T) *TariffRule {
	t.Helper()
	tariff, err := NewTariffRule(dec("0.027"), dec("15"), VehicleBatea, dec("1000"))
	if err != nil {
		t.Fatalf("NewTariffRule: %v", err)
	}
	return &tariff
}

func testCycle(t *testing.T) EconomicCycle {
	t.Helper()
	cycle, err := NewEconomicCycle(dec("37000"), dec("1200"), false, day(2025, time.October, 19), day(2025, time.November, 18))
	if err != nil {
		t.Fatalf("NewEconomicCycle: %v", err)
	}
	return cycle
}

func testRoutes(t *testing.T, routes ...DistanceRoute) RouteIndex {
	t.Helper()
	idx, err := NewRouteIndex(routes)
	if err != nil {
		t.Fatalf("NewRouteIndex: %v", err)
	}
	return idx
}

func mustRoute(t *testing.T, origin, dest int64, km string, segment bool) DistanceRoute {
	t.Helper()
	r, err := NewDistanceRoute(origin, dest, dec(km), segment)
	if err != nil {
		t.Fatalf("NewDistanceRoute: %v", err)
	}
	return r
}

func TestCalculateTripCost_SingleAboveMinimum(t *testing.T) {
	// 0.027 UF/ton-km * 50 km * 20 t * 1.2 = 32.4 UF
	routes := testRoutes(t, mustRoute(t, 1, 10, "50", false))
	loads := []Load{{NetWeightTons: dec("20"), OriginID: 1, DestinationID: 10}}

	res, err := CalculateTripCost(loads, routes, testTariff(t), testCycle(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TotalCostUF.Equal(dec("32.4")) {
		t.Errorf("total = %s UF, want 32.4", res.TotalCostUF)
	}
	if !res.AdjustmentFactor.Equal(dec("1.2")) {
		t.Errorf("factor = %s, want 1.2", res.AdjustmentFactor)
	}
	if !res.AppliedWeightTons.Equal(dec("20")) {
		t.Errorf("applied weight = %s t, want 20", res.AppliedWeightTons)
	}
	if len(res.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(res.Segments))
	}
	if res.Segments[0].Label != "direct 1->10" {
		t.Errorf("segment label = %q", res.Segments[0].Label)
	}
	if !res.Segments[0].AmountUF.Equal(dec("32.4")) {
		t.Errorf("segment amount = %s", res.Segments[0].AmountUF)
	}
	if !res.TotalDistanceKm.Equal(dec("50")) {
		t.Errorf("total distance = %s km, want 50", res.TotalDistanceKm)
	}
}

func TestCalculateTripCost_SingleBelowMinimumClampsWeight(t *testing.T) {
	// 10 t clamps to the 15 t guaranteed minimum: 0.027*50*15*1.2 = 24.3 UF
	routes := testRoutes(t, mustRoute(t, 1, 10, "50", false))
	loads := []Load{{NetWeightTons: dec("10"), OriginID: 1, DestinationID: 10}}

	res, err := CalculateTripCost(loads, routes, testTariff(t), testCycle(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TotalCostUF.Equal(dec("24.3")) {
		t.Errorf("total = %s UF, want 24.3", res.TotalCostUF)
	}
	if !res.AppliedWeightTons.Equal(dec("15")) {
		t.Errorf("applied weight = %s t, want 15", res.AppliedWeightTons)
	}
}

func TestCalculateTripCost_Consolidated(t *testing.T) {
	// Pickup 1->2 (segment): 10 t clamps to 15 t over 30 km -> 0.027*30*15*1.2 = 14.58
	// Main haul 2->10: 10+8 = 18 t over 40 km -> 0.027*40*18*1.2 = 23.328
	routes := testRoutes(t,
		mustRoute(t, 1, 2, "30", true),
		mustRoute(t, 2, 10, "40", false),
	)
	loads := []Load{
		{NetWeightTons: dec("10"), OriginID: 1, DestinationID: 10},
		{NetWeightTons: dec("8"), OriginID: 2, DestinationID: 10},
	}

	res, err := CalculateTripCost(loads, routes, testTariff(t), testCycle(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TotalCostUF.Equal(dec("37.908")) {
		t.Errorf("total = %s UF, want 37.908", res.TotalCostUF)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(res.Segments))
	}
	if res.Segments[0].Label != "pickup 1->2" {
		t.Errorf("pickup label = %q", res.Segments[0].Label)
	}
	if !res.Segments[0].AmountUF.Equal(dec("14.58")) {
		t.Errorf("pickup amount = %s UF, want 14.58", res.Segments[0].AmountUF)
	}
	if res.Segments[1].Label != "main haul 2->10" {
		t.Errorf("main haul label = %q", res.Segments[1].Label)
	}
	if !res.Segments[1].AmountUF.Equal(dec("23.328")) {
		t.Errorf("main haul amount = %s UF, want 23.328", res.Segments[1].AmountUF)
	}

	// Additivity: the total is exactly the sum of the legs.
	sum := res.Segments[0].AmountUF.Add(res.Segments[1].AmountUF)
	if !res.TotalCostUF.Equal(sum) {
		t.Errorf("total %s != leg sum %s", res.TotalCostUF, sum)
	}

	// Applied weight reports the main-haul billable weight.
	if !res.AppliedWeightTons.Equal(dec("18")) {
		t.Errorf("applied weight = %s t, want 18", res.AppliedWeightTons)
	}
	if !res.TotalDistanceKm.Equal(dec("70")) {
		t.Errorf("total distance = %s km, want 70", res.TotalDistanceKm)
	}
	if !res.ConsolidatedWeightTons.Equal(dec("18")) {
		t.Errorf("consolidated weight = %s t, want 18", res.ConsolidatedWeightTons)
	}
}

func TestCalculateTripCost_ConsolidatedMainHaulMinimum(t *testing.T) {
	// Combined 6+5 = 11 t still below the 15 t minimum on the main haul.
	routes := testRoutes(t,
		mustRoute(t, 1, 2, "30", true),
		mustRoute(t, 2, 10, "40", false),
	)
	loads := []Load{
		{NetWeightTons: dec("6"), OriginID: 1, DestinationID: 10},
		{NetWeightTons: dec("5"), OriginID: 2, DestinationID: 10},
	}

	res, err := CalculateTripCost(loads, routes, testTariff(t), testCycle(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.AppliedWeightTons.Equal(dec("15")) {
		t.Errorf("applied weight = %s t, want minimum 15", res.AppliedWeightTons)
	}
}

func TestCalculateTripCost_EmptyLoads(t *testing.T) {
	_, err := CalculateTripCost(nil, RouteIndex{}, testTariff(t), testCycle(t))
	if !IsKind(err, KindEmptyLoadList) {
		t.Fatalf("kind = %s, want %s (err=%v)", KindOf(err), KindEmptyLoadList, err)
	}
}

func TestCalculateTripCost_NilTariff(t *testing.T) {
	loads := []Load{{NetWeightTons: dec("20"), OriginID: 1, DestinationID: 10}}
	_, err := CalculateTripCost(loads, RouteIndex{}, nil, testCycle(t))
	if !IsKind(err, KindMissingTariff) {
		t.Fatalf("kind = %s, want %s (err=%v)", KindOf(err), KindMissingTariff, err)
	}
}

func TestCalculateTripCost_MissingRoutes(t *testing.T) {
	tariff := testTariff(t)
	cycle := testCycle(t)

	t.Run("single direct route absent", func(t *testing.T) {
		loads := []Load{{NetWeightTons: dec("20"), OriginID: 1, DestinationID: 99}}
		_, err := CalculateTripCost(loads, RouteIndex{}, tariff, cycle)
		if !IsKind(err, KindInvalidRoute) {
			t.Fatalf("kind = %s, want %s (err=%v)", KindOf(err), KindInvalidRoute, err)
		}
	})

	t.Run("pickup leg absent", func(t *testing.T) {
		routes := testRoutes(t, mustRoute(t, 2, 10, "40", false))
		loads := []Load{
			{NetWeightTons: dec("10"), OriginID: 1, DestinationID: 10},
			{NetWeightTons: dec("8"), OriginID: 2, DestinationID: 10},
		}
		_, err := CalculateTripCost(loads, routes, tariff, cycle)
		if !IsKind(err, KindInvalidRoute) {
			t.Fatalf("kind = %s, want %s (err=%v)", KindOf(err), KindInvalidRoute, err)
		}
	})

	t.Run("direct route does not satisfy pickup leg", func(t *testing.T) {
		// Same pair exists but only as a direct edge, not a segment link.
		routes := testRoutes(t,
			mustRoute(t, 1, 2, "30", false),
			mustRoute(t, 2, 10, "40", false),
		)
		loads := []Load{
			{NetWeightTons: dec("10"), OriginID: 1, DestinationID: 10},
			{NetWeightTons: dec("8"), OriginID: 2, DestinationID: 10},
		}
		_, err := CalculateTripCost(loads, routes, tariff, cycle)
		if !IsKind(err, KindInvalidRoute) {
			t.Fatalf("kind = %s, want %s (err=%v)", KindOf(err), KindInvalidRoute, err)
		}
	})
}

func TestCalculateTripCost_RejectsThreeLoads(t *testing.T) {
	routes := testRoutes(t,
		mustRoute(t, 1, 2, "30", true),
		mustRoute(t, 2, 10, "40", false),
	)
	loads := []Load{
		{NetWeightTons: dec("10"), OriginID: 1, DestinationID: 10},
		{NetWeightTons: dec("8"), OriginID: 2, DestinationID: 10},
		{NetWeightTons: dec("5"), OriginID: 3, DestinationID: 10},
	}
	_, err := CalculateTripCost(loads, routes, testTariff(t), testCycle(t))
	if !IsKind(err, KindInvalidInput) {
		t.Fatalf("kind = %s, want %s (err=%v)", KindOf(err), KindInvalidInput, err)
	}
}

func TestTripCostResult_ToCurrency(t *testing.T) {
	routes := testRoutes(t, mustRoute(t, 1, 10, "50", false))
	loads := []Load{{NetWeightTons: dec("20"), OriginID: 1, DestinationID: 10}}

	res, err := CalculateTripCost(loads, routes, testTariff(t), testCycle(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clp, err := res.ToCurrency(dec("37000"))
	if err != nil {
		t.Fatalf("ToCurrency: %v", err)
	}
	if !clp.Equal(dec("1198800")) {
		t.Errorf("CLP amount = %s, want 1198800", clp)
	}

	for _, uf := range []string{"0", "-1"} {
		if _, err := res.ToCurrency(dec(uf)); !IsKind(err, KindInvalidConversionRate) {
			t.Errorf("uf=%s: kind = %s, want %s", uf, KindOf(err), KindInvalidConversionRate)
		}
	}
}

func TestCalculateTripCost_MinimumWeightFloorHolds(t *testing.T) {
	// Billable weight never drops below the tariff minimum regardless of
	// actual load weight.
	routes := testRoutes(t, mustRoute(t, 1, 10, "50", false))
	tariff := testTariff(t)
	cycle := testCycle(t)

	for _, w := range []string{"0.1", "5", "14.999", "15", "15.001", "40"} {
		loads := []Load{{NetWeightTons: dec(w), OriginID: 1, DestinationID: 10}}
		res, err := CalculateTripCost(loads, routes, tariff, cycle)
		if err != nil {
			t.Fatalf("weight %s: unexpected error: %v", w, err)
		}
		if res.AppliedWeightTons.LessThan(tariff.MinWeightTons) {
			t.Errorf("weight %s: applied %s below minimum %s", w, res.AppliedWeightTons, tariff.MinWeightTons)
		}
	}
}
