// Package finance implements the settlement calculation engine: transport
// costs owed to contractors and revenue billed to clients for biosolids
// transport trips, adjusted for fuel price variation and governed by
// guaranteed minimum billing weights and tariff validity windows.
//
// The engine is pure: no I/O, no persistence, no shared state. Every
// function only reads its arguments and allocates a fresh result, so
// concurrent calls need no coordination. All monetary and weight arithmetic
// uses decimal values to keep contractual amounts exact.
package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// VehicleType identifies a vehicle configuration with its own tariff rule.
type VehicleType string

const (
	VehicleBatea          VehicleType = "BATEA"
	VehicleAmplirollOnly  VehicleType = "AMPLIROLL_SIMPLE"
	VehicleAmplirollCarro VehicleType = "AMPLIROLL_CARRO"
)

// Valid reports whether the vehicle type is one of the closed set.
func (v VehicleType) Valid() bool {
	switch v {
	case VehicleBatea, VehicleAmplirollOnly, VehicleAmplirollCarro:
		return true
	}
	return false
}

// Concept is a client billing concept.
type Concept string

const (
	ConceptTransporte  Concept = "TRANSPORTE"
	ConceptDisposicion Concept = "DISPOSICION"
	ConceptTratamiento Concept = "TRATAMIENTO"
)

// Valid reports whether the concept is one of the closed set.
func (c Concept) Valid() bool {
	switch c {
	case ConceptTransporte, ConceptDisposicion, ConceptTratamiento:
		return true
	}
	return false
}

// Concepts lists all billing concepts in presentation order.
func Concepts() []Concept {
	return []Concept{ConceptTransporte, ConceptDisposicion, ConceptTratamiento}
}

// TariffRule is a contractor's pricing rule for one vehicle configuration.
// Immutable once constructed; created by configuration import and read-only
// to the engine.
type TariffRule struct {
	BaseRatePerTonKm decimal.Decimal // UF per ton-km
	MinWeightTons    decimal.Decimal // guaranteed minimum billable weight
	VehicleType      VehicleType
	BaseFuelPrice    decimal.Decimal // contractual reference price, CLP/L
}

// NewTariffRule validates the tariff invariants and returns the rule.
func NewTariffRule(baseRate, minWeight decimal.Decimal, vt VehicleType, baseFuelPrice decimal.Decimal) (TariffRule, error) {
	if !baseRate.IsPositive() {
		return TariffRule{}, Errorf(KindInvalidInput, "tariff base rate must be positive, got %s", baseRate)
	}
	if minWeight.IsNegative() {
		return TariffRule{}, Errorf(KindInvalidInput, "tariff minimum weight cannot be negative, got %s", minWeight)
	}
	if !vt.Valid() {
		return TariffRule{}, Errorf(KindInvalidInput, "unknown vehicle type %q", string(vt))
	}
	if !baseFuelPrice.IsPositive() {
		return TariffRule{}, Errorf(KindInvalidFuelPrice, "tariff base fuel price must be positive, got %s", baseFuelPrice)
	}
	return TariffRule{
		BaseRatePerTonKm: baseRate,
		MinWeightTons:    minWeight,
		VehicleType:      vt,
		BaseFuelPrice:    baseFuelPrice,
	}, nil
}

// EconomicCycle is the active billing period's economic snapshot. It is
// produced and closed by the billing cycle manager; IsClosed is
// informational only to this engine.
type EconomicCycle struct {
	UFValue   decimal.Decimal // CLP per UF
	FuelPrice decimal.Decimal // current period fuel price, CLP/L
	IsClosed  bool
	StartDate time.Time
	EndDate   time.Time
}

// NewEconomicCycle validates the cycle invariants and returns the snapshot.
func NewEconomicCycle(ufValue, fuelPrice decimal.Decimal, isClosed bool, start, end time.Time) (EconomicCycle, error) {
	if !ufValue.IsPositive() {
		return EconomicCycle{}, Errorf(KindInvalidConversionRate, "cycle UF value must be positive, got %s", ufValue)
	}
	if !fuelPrice.IsPositive() {
		return EconomicCycle{}, Errorf(KindInvalidInput, "cycle fuel price must be positive, got %s", fuelPrice)
	}
	if end.Before(start) {
		return EconomicCycle{}, Errorf(KindInvalidInput,
			"cycle end date %s precedes start date %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return EconomicCycle{
		UFValue:   ufValue,
		FuelPrice: fuelPrice,
		IsClosed:  isClosed,
		StartDate: start,
		EndDate:   end,
	}, nil
}

// DistanceRoute is one edge in the distance graph between logistics nodes.
// IsSegmentLink marks an intermediate pickup leg of a consolidated trip as
// opposed to a terminal main-haul leg.
type DistanceRoute struct {
	OriginID      int64
	DestinationID int64
	DistanceKm    decimal.Decimal
	IsSegmentLink bool
}

// NewDistanceRoute validates the route invariants and returns the edge.
func NewDistanceRoute(originID, destinationID int64, distanceKm decimal.Decimal, isSegmentLink bool) (DistanceRoute, error) {
	if !distanceKm.IsPositive() {
		return DistanceRoute{}, Errorf(KindInvalidInput,
			"route %d->%d distance must be positive, got %s", originID, destinationID, distanceKm)
	}
	return DistanceRoute{
		OriginID:      originID,
		DestinationID: destinationID,
		DistanceKm:    distanceKm,
		IsSegmentLink: isSegmentLink,
	}, nil
}

// ClientTariff is one client's price for one billing concept, valid within
// a date window. A nil ValidTo means the tariff is open ended.
type ClientTariff struct {
	ClientID      int64
	Concept       Concept
	RatePerTon    decimal.Decimal // UF per ton
	MinWeightTons decimal.Decimal
	ValidFrom     time.Time
	ValidTo       *time.Time
}

// NewClientTariff validates the tariff invariants and returns it.
func NewClientTariff(clientID int64, concept Concept, ratePerTon, minWeight decimal.Decimal, validFrom time.Time, validTo *time.Time) (ClientTariff, error) {
	if !concept.Valid() {
		return ClientTariff{}, Errorf(KindInvalidInput, "unknown billing concept %q", string(concept))
	}
	if !ratePerTon.IsPositive() {
		return ClientTariff{}, Errorf(KindInvalidInput,
			"client %d tariff rate for %s must be positive, got %s", clientID, concept, ratePerTon)
	}
	if minWeight.IsNegative() {
		return ClientTariff{}, Errorf(KindInvalidInput,
			"client %d tariff minimum weight for %s cannot be negative, got %s", clientID, concept, minWeight)
	}
	if validTo != nil && validTo.Before(validFrom) {
		return ClientTariff{}, Errorf(KindInvalidInput,
			"client %d tariff for %s expires %s before it starts %s",
			clientID, concept, validTo.Format(time.DateOnly), validFrom.Format(time.DateOnly))
	}
	return ClientTariff{
		ClientID:      clientID,
		Concept:       concept,
		RatePerTon:    ratePerTon,
		MinWeightTons: minWeight,
		ValidFrom:     validFrom,
		ValidTo:       validTo,
	}, nil
}

// ActiveOn reports whether the tariff is valid on the given date.
func (t ClientTariff) ActiveOn(date time.Time) bool {
	if date.Before(t.ValidFrom) {
		return false
	}
	return t.ValidTo == nil || !date.After(*t.ValidTo)
}

// Load is the minimal projection of a shipment this engine consumes. Loads
// are owned and mutated by the logistics module; the engine never writes to
// them. DestinationID is a disposal site or treatment plant id consistent
// with the route map.
type Load struct {
	NetWeightTons   decimal.Decimal
	OriginID        int64
	DestinationID   int64
	GoesToTreatment bool
}

// Segment is one priced leg of a trip.
type Segment struct {
	Label    string
	AmountUF decimal.Decimal
}

// TripCostResult is the outcome of a transport cost calculation. Constructed
// only by CalculateTripCost.
type TripCostResult struct {
	TotalCostUF       decimal.Decimal
	AdjustmentFactor  decimal.Decimal
	AppliedWeightTons decimal.Decimal

	// Segments lists each priced leg in travel order.
	Segments []Segment

	// TotalDistanceKm and ConsolidatedWeightTons are breakdown metadata:
	// the summed leg distance and the main-haul billable weight.
	TotalDistanceKm        decimal.Decimal
	ConsolidatedWeightTons decimal.Decimal
}

// ToCurrency converts the total UF cost to currency at the given UF value.
func (r TripCostResult) ToCurrency(ufValue decimal.Decimal) (decimal.Decimal, error) {
	if !ufValue.IsPositive() {
		return decimal.Zero, Errorf(KindInvalidConversionRate, "UF value must be positive, got %s", ufValue)
	}
	return r.TotalCostUF.Mul(ufValue), nil
}

// RevenueResult is the outcome of a client revenue calculation. The concept
// breakdown always carries all three concepts; a concept not charged is
// recorded as zero for auditability. Constructed only by CalculateLoadRevenue.
type RevenueResult struct {
	TotalUF  decimal.Decimal
	TotalCLP decimal.Decimal
	Concepts map[Concept]decimal.Decimal
}
