package finance

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFuelFactor(t *testing.T) {
	cases := []struct {
		name    string
		current string
		base    string
		want    string
	}{
		{"price rose 20 percent", "1200", "1000", "1.2"},
		{"price fell 20 percent", "800", "1000", "0.8"},
		{"price unchanged", "1000", "1000", "1"},
		{"price doubled", "2000", "1000", "2"},
		{"zero current price accepted", "0", "1000", "0"},
		{"negative current price accepted", "-500", "1000", "-0.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FuelFactor(dec(tc.current), dec(tc.base))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Errorf("factor = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestFuelFactor_NonPositiveBase(t *testing.T) {
	for _, base := range []string{"0", "-1", "-1000"} {
		_, err := FuelFactor(dec("1000"), dec(base))
		if err == nil {
			t.Fatalf("base %s: expected error", base)
		}
		if !IsKind(err, KindInvalidFuelPrice) {
			t.Errorf("base %s: kind = %s, want %s", base, KindOf(err), KindInvalidFuelPrice)
		}
	}
}

func TestFuelFactor_StrictlyIncreasingInCurrentPrice(t *testing.T) {
	base := dec("1000")
	prices := []string{"-100", "0", "500", "999", "1000", "1001", "1500", "3000"}

	prev, err := FuelFactor(dec(prices[0]), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range prices[1:] {
		cur, err := FuelFactor(dec(p), base)
		if err != nil {
			t.Fatalf("unexpected error at %s: %v", p, err)
		}
		if !cur.GreaterThan(prev) {
			t.Fatalf("factor not strictly increasing: f(%s)=%s <= previous %s", p, cur, prev)
		}
		prev = cur
	}
}

func TestFuelFactor_UnityAtBasePrice(t *testing.T) {
	for _, base := range []string{"1", "750", "1000", "1234.56"} {
		got, err := FuelFactor(dec(base), dec(base))
		if err != nil {
			t.Fatalf("base %s: unexpected error: %v", base, err)
		}
		if !got.Equal(one) {
			t.Errorf("base %s: factor = %s, want 1", base, got)
		}
	}
}
