package settlement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cmendoza/biosettle/internal/finance"
	"github.com/cmendoza/biosettle/internal/metrics"
	"github.com/cmendoza/biosettle/internal/storage"
)

// CalculateTripCost prices one trip against the given period's economic
// cycle without touching stored loads. Used for ad hoc quotes.
func (s *Service) CalculateTripCost(ctx context.Context, periodKey, vehicleType string, loads []finance.Load) (*TripSettlement, error) {
	cycle, err := s.financeCycle(ctx, periodKey)
	if err != nil {
		return nil, err
	}

	row, err := s.store.GetContractorTariff(ctx, vehicleType)
	if err != nil {
		return nil, fmt.Errorf("load contractor tariff: %w", err)
	}
	if row == nil {
		return nil, finance.Errorf(finance.KindMissingTariff, "no contractor tariff for vehicle type %s", vehicleType)
	}
	tariff, err := finance.NewTariffRule(
		decimal.NewFromFloat(row.BaseRatePerTonKm),
		decimal.NewFromFloat(row.MinWeightTons),
		finance.VehicleType(row.VehicleType),
		decimal.NewFromFloat(row.BaseFuelPrice),
	)
	if err != nil {
		return nil, fmt.Errorf("contractor tariff %s: %w", vehicleType, err)
	}

	routes, err := s.loadRouteIndex(ctx)
	if err != nil {
		return nil, err
	}

	cost, err := finance.CalculateTripCost(loads, routes, &tariff, cycle)
	metrics.RecordCalculation("trip_cost", err)
	if err != nil {
		return nil, err
	}
	costCLP, err := cost.ToCurrency(cycle.UFValue)
	if err != nil {
		return nil, err
	}

	return &TripSettlement{
		VehicleType:       vehicleType,
		Segments:          cost.Segments,
		AdjustmentFactor:  cost.AdjustmentFactor,
		AppliedWeightTons: cost.AppliedWeightTons,
		TotalDistanceKm:   cost.TotalDistanceKm,
		CostUF:            cost.TotalCostUF,
		CostCLP:           costCLP,
	}, nil
}

// CalculateLoadRevenue bills one load against the client's tariffs active at
// the end of the given period.
func (s *Service) CalculateLoadRevenue(ctx context.Context, periodKey string, clientID int64, load finance.Load) (*LoadRevenue, error) {
	cycle, err := s.financeCycle(ctx, periodKey)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.ListClientTariffs(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list client tariffs: %w", err)
	}
	tariffs := make([]finance.ClientTariff, 0, len(rows))
	for _, row := range rows {
		tariffs = append(tariffs, toFinanceClientTariff(row))
	}

	rev, err := finance.CalculateLoadRevenue(load, tariffs, cycle.UFValue, cycle.EndDate)
	metrics.RecordCalculation("load_revenue", err)
	if err != nil {
		return nil, err
	}

	return &LoadRevenue{
		ClientID:   clientID,
		Concepts:   rev.Concepts,
		RevenueUF:  rev.TotalUF,
		RevenueCLP: rev.TotalCLP,
	}, nil
}

func (s *Service) financeCycle(ctx context.Context, periodKey string) (finance.EconomicCycle, error) {
	cycle, err := s.store.GetEconomicCycle(ctx, periodKey)
	if err != nil {
		return finance.EconomicCycle{}, fmt.Errorf("load economic cycle: %w", err)
	}
	if cycle == nil {
		return finance.EconomicCycle{}, fmt.Errorf("%w: %s", ErrCycleNotFound, periodKey)
	}
	return finance.NewEconomicCycle(
		decimal.NewFromFloat(cycle.UFValue),
		decimal.NewFromFloat(cycle.FuelPrice),
		cycle.Status == storage.CycleClosed,
		cycle.StartDate, cycle.EndDate,
	)
}
