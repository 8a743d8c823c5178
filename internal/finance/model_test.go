package finance

import (
	"testing"
	"time"
)

func TestNewTariffRule_Validation(t *testing.T) {
	tests := []struct {
		name      string
		rate      string
		minWeight string
		vt        VehicleType
		baseFuel  string
		wantKind  Kind
	}{
		{"valid", "0.027", "15", VehicleBatea, "1000", ""},
		{"zero min weight allowed", "0.027", "0", VehicleAmplirollOnly, "1000", ""},
		{"zero rate", "0", "15", VehicleBatea, "1000", KindInvalidInput},
		{"negative rate", "-0.01", "15", VehicleBatea, "1000", KindInvalidInput},
		{"negative min weight", "0.027", "-1", VehicleBatea, "1000", KindInvalidInput},
		{"unknown vehicle type", "0.027", "15", VehicleType("TRICICLO"), "1000", KindInvalidInput},
		{"zero base fuel price", "0.027", "15", VehicleAmplirollCarro, "0", KindInvalidFuelPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTariffRule(dec(tt.rate), dec(tt.minWeight), tt.vt, dec(tt.baseFuel))
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !IsKind(err, tt.wantKind) {
				t.Fatalf("kind = %s, want %s (err=%v)", KindOf(err), tt.wantKind, err)
			}
		})
	}
}

func TestNewEconomicCycle_Validation(t *testing.T) {
	start := day(2025, time.October, 19)
	end := day(2025, time.November, 18)

	if _, err := NewEconomicCycle(dec("37000"), dec("1200"), false, start, end); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewEconomicCycle(dec("0"), dec("1200"), false, start, end); !IsKind(err, KindInvalidConversionRate) {
		t.Errorf("zero UF: kind = %s, want %s", KindOf(err), KindInvalidConversionRate)
	}
	if _, err := NewEconomicCycle(dec("37000"), dec("-1"), false, start, end); !IsKind(err, KindInvalidInput) {
		t.Errorf("negative fuel: kind = %s, want %s", KindOf(err), KindInvalidInput)
	}
	if _, err := NewEconomicCycle(dec("37000"), dec("1200"), false, end, start); !IsKind(err, KindInvalidInput) {
		t.Errorf("inverted dates: kind = %s, want %s", KindOf(err), KindInvalidInput)
	}
	// Single-day cycle is legal.
	if _, err := NewEconomicCycle(dec("37000"), dec("1200"), true, start, start); err != nil {
		t.Errorf("single-day cycle: unexpected error: %v", err)
	}
}

func TestNewDistanceRoute_Validation(t *testing.T) {
	if _, err := NewDistanceRoute(1, 10, dec("50"), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, km := range []string{"0", "-5"} {
		if _, err := NewDistanceRoute(1, 10, dec(km), false); !IsKind(err, KindInvalidInput) {
			t.Errorf("km=%s: kind = %s, want %s", km, KindOf(err), KindInvalidInput)
		}
	}
}

func TestNewClientTariff_Validation(t *testing.T) {
	from := day(2025, time.January, 1)
	before := day(2024, time.December, 1)

	if _, err := NewClientTariff(1, ConceptTransporte, dec("0.5"), dec("0"), from, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewClientTariff(1, Concept("PEAJE"), dec("0.5"), dec("0"), from, nil); !IsKind(err, KindInvalidInput) {
		t.Errorf("unknown concept: kind = %s, want %s", KindOf(err), KindInvalidInput)
	}
	if _, err := NewClientTariff(1, ConceptTransporte, dec("0"), dec("0"), from, nil); !IsKind(err, KindInvalidInput) {
		t.Errorf("zero rate: kind = %s, want %s", KindOf(err), KindInvalidInput)
	}
	if _, err := NewClientTariff(1, ConceptTransporte, dec("0.5"), dec("-1"), from, nil); !IsKind(err, KindInvalidInput) {
		t.Errorf("negative min weight: kind = %s, want %s", KindOf(err), KindInvalidInput)
	}
	if _, err := NewClientTariff(1, ConceptTransporte, dec("0.5"), dec("0"), from, &before); !IsKind(err, KindInvalidInput) {
		t.Errorf("expires before start: kind = %s, want %s", KindOf(err), KindInvalidInput)
	}
}

func TestClientTariff_ActiveOn(t *testing.T) {
	from := day(2025, time.March, 1)
	to := day(2025, time.March, 31)

	bounded := clientTariff(t, ConceptTransporte, "0.5", "0", from, &to)
	openEnded := clientTariff(t, ConceptTransporte, "0.5", "0", from, nil)

	tests := []struct {
		name   string
		tariff ClientTariff
		date   time.Time
		want   bool
	}{
		{"before window", bounded, from.AddDate(0, 0, -1), false},
		{"first day", bounded, from, true},
		{"last day", bounded, to, true},
		{"after window", bounded, to.AddDate(0, 0, 1), false},
		{"open ended far future", openEnded, day(2040, time.January, 1), true},
		{"open ended before start", openEnded, from.AddDate(0, 0, -1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tariff.ActiveOn(tt.date); got != tt.want {
				t.Errorf("ActiveOn(%s) = %v, want %v", tt.date.Format(time.DateOnly), got, tt.want)
			}
		})
	}
}

func TestNewRouteIndex_RejectsDuplicates(t *testing.T) {
	a, _ := NewDistanceRoute(1, 10, dec("50"), false)
	b, _ := NewDistanceRoute(1, 10, dec("60"), false)

	if _, err := NewRouteIndex([]DistanceRoute{a, b}); !IsKind(err, KindInvalidInput) {
		t.Fatalf("kind = %s, want %s (err=%v)", KindOf(err), KindInvalidInput, err)
	}

	// Same endpoints with a different link flag are distinct edges.
	c, _ := NewDistanceRoute(1, 10, dec("20"), true)
	idx, err := NewRouteIndex([]DistanceRoute{a, c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	direct, err := idx.Lookup(1, 10, false)
	if err != nil {
		t.Fatalf("direct lookup: %v", err)
	}
	if !direct.DistanceKm.Equal(dec("50")) {
		t.Errorf("direct distance = %s, want 50", direct.DistanceKm)
	}
	link, err := idx.Lookup(1, 10, true)
	if err != nil {
		t.Fatalf("link lookup: %v", err)
	}
	if !link.DistanceKm.Equal(dec("20")) {
		t.Errorf("link distance = %s, want 20", link.DistanceKm)
	}
}

func TestRouteIndex_LookupMissing(t *testing.T) {
	a, _ := NewDistanceRoute(1, 10, dec("50"), false)
	idx, err := NewRouteIndex([]DistanceRoute{a})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := idx.Lookup(2, 10, false); !IsKind(err, KindInvalidRoute) {
		t.Errorf("kind = %s, want %s", KindOf(err), KindInvalidRoute)
	}
	if _, err := idx.Lookup(1, 10, true); !IsKind(err, KindInvalidRoute) {
		t.Errorf("segment-link miss: kind = %s, want %s", KindOf(err), KindInvalidRoute)
	}
}
