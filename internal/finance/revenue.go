package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalculateLoadRevenue computes the UF and CLP amounts billed to the client
// that generated one load, split by billing concept.
//
// TRANSPORTE and DISPOSICION are always charged. TRATAMIENTO is charged
// only when the load goes through a treatment plant; otherwise it is
// recorded as zero in the breakdown so the concept is still auditable.
// Concepts are computed independently: each finds its own valid tariff and
// applies its own guaranteed minimum weight.
//
// Tariffs are filtered to those valid on calculationDate; a zero
// calculationDate means today. A mandatory concept without a valid tariff
// fails with KindMissingTariff naming the concept and the date.
func CalculateLoadRevenue(load Load, tariffs []ClientTariff, ufValue decimal.Decimal, calculationDate time.Time) (RevenueResult, error) {
	if !load.NetWeightTons.IsPositive() {
		return RevenueResult{}, Errorf(KindInvalidWeight,
			"load net weight must be positive to bill revenue, got %s", load.NetWeightTons)
	}
	if !ufValue.IsPositive() {
		return RevenueResult{}, Errorf(KindInvalidConversionRate, "UF value must be positive, got %s", ufValue)
	}

	calcDate := calculationDate
	if calcDate.IsZero() {
		calcDate = time.Now()
	}

	active := make([]ClientTariff, 0, len(tariffs))
	for _, t := range tariffs {
		if t.ActiveOn(calcDate) {
			active = append(active, t)
		}
	}

	concepts := make(map[Concept]decimal.Decimal, 3)
	totalUF := decimal.Zero

	for _, concept := range []Concept{ConceptTransporte, ConceptDisposicion} {
		amount, err := conceptAmount(load, active, concept, calcDate)
		if err != nil {
			return RevenueResult{}, err
		}
		concepts[concept] = amount
		totalUF = totalUF.Add(amount)
	}

	if load.GoesToTreatment {
		amount, err := conceptAmount(load, active, ConceptTratamiento, calcDate)
		if err != nil {
			return RevenueResult{}, err
		}
		concepts[ConceptTratamiento] = amount
		totalUF = totalUF.Add(amount)
	} else {
		concepts[ConceptTratamiento] = decimal.Zero
	}

	return RevenueResult{
		TotalUF:  totalUF,
		TotalCLP: totalUF.Mul(ufValue),
		Concepts: concepts,
	}, nil
}

// conceptAmount prices one billing concept: rate * max(weight, minimum).
func conceptAmount(load Load, active []ClientTariff, concept Concept, calcDate time.Time) (decimal.Decimal, error) {
	tariff, ok := findTariff(active, concept)
	if !ok {
		return decimal.Zero, Errorf(KindMissingTariff,
			"no valid %s tariff for the client on %s", concept, calcDate.Format(time.DateOnly))
	}
	weight := billableWeight(load.NetWeightTons, tariff.MinWeightTons)
	return tariff.RatePerTon.Mul(weight), nil
}

func findTariff(tariffs []ClientTariff, concept Concept) (ClientTariff, bool) {
	for _, t := range tariffs {
		if t.Concept == concept {
			return t, true
		}
	}
	return ClientTariff{}, false
}
