package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cmendoza/biosettle/internal/finance"
	"github.com/cmendoza/biosettle/internal/metrics"
	"github.com/cmendoza/biosettle/internal/storage"
)

var (
	ErrCycleNotFound = errors.New("economic cycle not found for period")
	ErrCycleClosed   = errors.New("economic cycle is closed")
)

// Service computes period settlements from recorded loads and caches the
// results as snapshots.
type Service struct {
	store storage.Storage
	log   *zap.Logger
}

func NewService(st storage.Storage, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, log: log}
}

// TripSettlement is the priced outcome of one trip.
type TripSettlement struct {
	TripID            string            `json:"trip_id"`
	VehicleType       string            `json:"vehicle_type"`
	LoadIDs           []string          `json:"load_ids"`
	Segments          []finance.Segment `json:"segments"`
	AdjustmentFactor  decimal.Decimal   `json:"adjustment_factor"`
	AppliedWeightTons decimal.Decimal   `json:"applied_weight_tons"`
	TotalDistanceKm   decimal.Decimal   `json:"total_distance_km"`
	CostUF            decimal.Decimal   `json:"cost_uf"`
	CostCLP           decimal.Decimal   `json:"cost_clp"`
}

// LoadRevenue is the billed outcome of one load.
type LoadRevenue struct {
	LoadID     string                              `json:"load_id"`
	ClientID   int64                               `json:"client_id"`
	Concepts   map[finance.Concept]decimal.Decimal `json:"concepts"`
	RevenueUF  decimal.Decimal                     `json:"revenue_uf"`
	RevenueCLP decimal.Decimal                     `json:"revenue_clp"`
}

// SettlementError records a trip or load that could not be settled.
type SettlementError struct {
	TripID string `json:"trip_id,omitempty"`
	LoadID string `json:"load_id,omitempty"`
	Reason string `json:"reason"`
}

// PeriodSettlement is the full result of settling one billing period.
type PeriodSettlement struct {
	PeriodKey   string    `json:"period_key"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	GeneratedAt time.Time `json:"generated_at"`
	FromCache   bool      `json:"-"`

	UFValue   decimal.Decimal `json:"uf_value"`
	FuelPrice decimal.Decimal `json:"fuel_price"`

	Trips    []TripSettlement  `json:"trips"`
	Revenues []LoadRevenue     `json:"revenues"`
	Errors   []SettlementError `json:"errors,omitempty"`

	TotalCostUF     decimal.Decimal `json:"total_cost_uf"`
	TotalCostCLP    decimal.Decimal `json:"total_cost_clp"`
	TotalRevenueUF  decimal.Decimal `json:"total_revenue_uf"`
	TotalRevenueCLP decimal.Decimal `json:"total_revenue_clp"`
	MarginUF        decimal.Decimal `json:"margin_uf"`

	// Report breakdowns.
	CostByVehicleType map[string]decimal.Decimal          `json:"cost_by_vehicle_type"`
	RevenueByClient   map[int64]decimal.Decimal           `json:"revenue_by_client"`
	RevenueByConcept  map[finance.Concept]decimal.Decimal `json:"revenue_by_concept"`
	LoadsProcessed    int                                 `json:"loads_processed"`
	TripsProcessed    int                                 `json:"trips_processed"`
}

// SettlePeriod computes the settlement for the given period key. A cached
// snapshot is returned unless force is set. Loads settled while the cycle is
// open are marked SETTLED; frozen loads keep their status.
func (s *Service) SettlePeriod(ctx context.Context, periodKey string, force bool) (*PeriodSettlement, error) {
	started := time.Now()

	if !force {
		if cached, err := s.cachedSettlement(ctx, periodKey); err != nil {
			return nil, err
		} else if cached != nil {
			s.log.Info("returning cached settlement", zap.String("period", periodKey))
			return cached, nil
		}
	}

	cycle, err := s.store.GetEconomicCycle(ctx, periodKey)
	if err != nil {
		return nil, fmt.Errorf("load economic cycle: %w", err)
	}
	if cycle == nil {
		return nil, fmt.Errorf("%w: %s", ErrCycleNotFound, periodKey)
	}

	finCycle, err := finance.NewEconomicCycle(
		decimal.NewFromFloat(cycle.UFValue),
		decimal.NewFromFloat(cycle.FuelPrice),
		cycle.Status == storage.CycleClosed,
		cycle.StartDate, cycle.EndDate,
	)
	if err != nil {
		return nil, fmt.Errorf("economic cycle %s: %w", periodKey, err)
	}

	loads, err := s.store.ListLoadsInRange(ctx, cycle.StartDate, cycle.EndDate)
	if err != nil {
		return nil, fmt.Errorf("list loads: %w", err)
	}

	routes, err := s.loadRouteIndex(ctx)
	if err != nil {
		return nil, err
	}
	tariffs, err := s.loadContractorTariffs(ctx)
	if err != nil {
		return nil, err
	}

	result := &PeriodSettlement{
		PeriodKey:         periodKey,
		StartDate:         cycle.StartDate,
		EndDate:           cycle.EndDate,
		GeneratedAt:       time.Now(),
		UFValue:           finCycle.UFValue,
		FuelPrice:         finCycle.FuelPrice,
		CostByVehicleType: make(map[string]decimal.Decimal),
		RevenueByClient:   make(map[int64]decimal.Decimal),
		RevenueByConcept:  make(map[finance.Concept]decimal.Decimal),
		LoadsProcessed:    len(loads),
	}

	s.settleTrips(loads, routes, tariffs, finCycle, result)
	s.billRevenues(ctx, loads, finCycle, result)
	result.MarginUF = result.TotalRevenueUF.Sub(result.TotalCostUF)
	result.TripsProcessed = len(result.Trips)

	if cycle.Status != storage.CycleClosed {
		for _, l := range loads {
			if l.FinancialStatus == storage.LoadFrozen {
				continue
			}
			if err := s.store.UpdateLoadStatus(ctx, l.ID, storage.LoadSettled); err != nil {
				s.log.Warn("mark load settled failed", zap.String("load", l.ID), zap.Error(err))
			}
		}
	}

	if err := s.saveSnapshot(ctx, result); err != nil {
		s.log.Warn("save settlement snapshot failed", zap.String("period", periodKey), zap.Error(err))
	}

	metrics.SettlementDurationSeconds.WithLabelValues(periodKey).Observe(time.Since(started).Seconds())
	metrics.SettlementLoadsProcessed.WithLabelValues(periodKey).Set(float64(len(loads)))
	s.log.Info("settlement computed",
		zap.String("period", periodKey),
		zap.Int("loads", len(loads)),
		zap.Int("trips", result.TripsProcessed),
		zap.Int("errors", len(result.Errors)),
		zap.String("cost_uf", result.TotalCostUF.String()),
		zap.String("revenue_uf", result.TotalRevenueUF.String()),
	)
	return result, nil
}

func (s *Service) settleTrips(loads []storage.Load, routes finance.RouteIndex, tariffs map[string]finance.TariffRule, cycle finance.EconomicCycle, result *PeriodSettlement) {
	for _, group := range groupByTrip(loads) {
		first := group[0]
		tariff, ok := tariffs[first.VehicleType]
		if !ok {
			result.Errors = append(result.Errors, SettlementError{
				TripID: first.TripID,
				Reason: fmt.Sprintf("no contractor tariff for vehicle type %s", first.VehicleType),
			})
			metrics.RecordCalculation("trip_cost", finance.Errorf(finance.KindMissingTariff, "no tariff"))
			continue
		}

		finLoads := make([]finance.Load, 0, len(group))
		loadIDs := make([]string, 0, len(group))
		for _, l := range group {
			finLoads = append(finLoads, toFinanceLoad(l))
			loadIDs = append(loadIDs, l.ID)
		}

		cost, err := finance.CalculateTripCost(finLoads, routes, &tariff, cycle)
		metrics.RecordCalculation("trip_cost", err)
		if err != nil {
			result.Errors = append(result.Errors, SettlementError{TripID: first.TripID, Reason: err.Error()})
			continue
		}
		costCLP, err := cost.ToCurrency(cycle.UFValue)
		if err != nil {
			result.Errors = append(result.Errors, SettlementError{TripID: first.TripID, Reason: err.Error()})
			continue
		}

		result.Trips = append(result.Trips, TripSettlement{
			TripID:            first.TripID,
			VehicleType:       first.VehicleType,
			LoadIDs:           loadIDs,
			Segments:          cost.Segments,
			AdjustmentFactor:  cost.AdjustmentFactor,
			AppliedWeightTons: cost.AppliedWeightTons,
			TotalDistanceKm:   cost.TotalDistanceKm,
			CostUF:            cost.TotalCostUF,
			CostCLP:           costCLP,
		})
		result.TotalCostUF = result.TotalCostUF.Add(cost.TotalCostUF)
		result.TotalCostCLP = result.TotalCostCLP.Add(costCLP)
		result.CostByVehicleType[first.VehicleType] = result.CostByVehicleType[first.VehicleType].Add(cost.TotalCostUF)
	}
}

func (s *Service) billRevenues(ctx context.Context, loads []storage.Load, cycle finance.EconomicCycle, result *PeriodSettlement) {
	tariffCache := make(map[int64][]finance.ClientTariff)

	for _, l := range loads {
		tariffs, ok := tariffCache[l.ClientID]
		if !ok {
			rows, err := s.store.ListClientTariffs(ctx, l.ClientID)
			if err != nil {
				result.Errors = append(result.Errors, SettlementError{LoadID: l.ID, Reason: err.Error()})
				continue
			}
			tariffs = make([]finance.ClientTariff, 0, len(rows))
			for _, row := range rows {
				tariffs = append(tariffs, toFinanceClientTariff(row))
			}
			tariffCache[l.ClientID] = tariffs
		}

		rev, err := finance.CalculateLoadRevenue(toFinanceLoad(l), tariffs, cycle.UFValue, cycle.EndDate)
		metrics.RecordCalculation("load_revenue", err)
		if err != nil {
			result.Errors = append(result.Errors, SettlementError{LoadID: l.ID, Reason: err.Error()})
			continue
		}

		result.Revenues = append(result.Revenues, LoadRevenue{
			LoadID:     l.ID,
			ClientID:   l.ClientID,
			Concepts:   rev.Concepts,
			RevenueUF:  rev.TotalUF,
			RevenueCLP: rev.TotalCLP,
		})
		result.TotalRevenueUF = result.TotalRevenueUF.Add(rev.TotalUF)
		result.TotalRevenueCLP = result.TotalRevenueCLP.Add(rev.TotalCLP)
		result.RevenueByClient[l.ClientID] = result.RevenueByClient[l.ClientID].Add(rev.TotalUF)
		for concept, amount := range rev.Concepts {
			result.RevenueByConcept[concept] = result.RevenueByConcept[concept].Add(amount)
		}
	}
}

func (s *Service) cachedSettlement(ctx context.Context, periodKey string) (*PeriodSettlement, error) {
	snap, err := s.store.GetSettlementSnapshot(ctx, periodKey)
	if err != nil {
		return nil, fmt.Errorf("load settlement snapshot: %w", err)
	}
	if snap == nil {
		return nil, nil
	}
	var result PeriodSettlement
	if err := json.Unmarshal(snap.Payload, &result); err != nil {
		return nil, fmt.Errorf("decode settlement snapshot: %w", err)
	}
	result.FromCache = true
	return &result, nil
}

func (s *Service) saveSnapshot(ctx context.Context, result *PeriodSettlement) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.store.SaveSettlementSnapshot(ctx, storage.SettlementSnapshot{
		PeriodKey:   result.PeriodKey,
		Payload:     payload,
		GeneratedAt: result.GeneratedAt,
	})
}

func (s *Service) loadRouteIndex(ctx context.Context) (finance.RouteIndex, error) {
	rows, err := s.store.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	routes := make([]finance.DistanceRoute, 0, len(rows))
	for _, r := range rows {
		routes = append(routes, finance.DistanceRoute{
			OriginID:      r.OriginID,
			DestinationID: r.DestinationID,
			DistanceKm:    decimal.NewFromFloat(r.DistanceKm),
			IsSegmentLink: r.IsSegmentLink,
		})
	}
	return finance.NewRouteIndex(routes)
}

func (s *Service) loadContractorTariffs(ctx context.Context) (map[string]finance.TariffRule, error) {
	rows, err := s.store.ListContractorTariffs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contractor tariffs: %w", err)
	}
	out := make(map[string]finance.TariffRule, len(rows))
	for _, row := range rows {
		rule, err := finance.NewTariffRule(
			decimal.NewFromFloat(row.BaseRatePerTonKm),
			decimal.NewFromFloat(row.MinWeightTons),
			finance.VehicleType(row.VehicleType),
			decimal.NewFromFloat(row.BaseFuelPrice),
		)
		if err != nil {
			return nil, fmt.Errorf("contractor tariff %s: %w", row.VehicleType, err)
		}
		out[row.VehicleType] = rule
	}
	return out, nil
}

// groupByTrip splits loads into trips preserving encounter order. Loads
// arrive ordered by service date, trip and sequence.
func groupByTrip(loads []storage.Load) [][]storage.Load {
	var order []string
	groups := make(map[string][]storage.Load)
	for _, l := range loads {
		if _, ok := groups[l.TripID]; !ok {
			order = append(order, l.TripID)
		}
		groups[l.TripID] = append(groups[l.TripID], l)
	}
	out := make([][]storage.Load, 0, len(order))
	for _, id := range order {
		out = append(out, groups[id])
	}
	return out
}

func toFinanceLoad(l storage.Load) finance.Load {
	return finance.Load{
		NetWeightTons:   decimal.NewFromFloat(l.NetWeightTons),
		OriginID:        l.OriginID,
		DestinationID:   l.DestinationID,
		GoesToTreatment: l.GoesToTreatment,
	}
}

func toFinanceClientTariff(row storage.ClientTariff) finance.ClientTariff {
	return finance.ClientTariff{
		ClientID:      row.ClientID,
		Concept:       finance.Concept(row.Concept),
		RatePerTon:    decimal.NewFromFloat(row.RatePerTon),
		MinWeightTons: decimal.NewFromFloat(row.MinWeightTons),
		ValidFrom:     row.ValidFrom,
		ValidTo:       row.ValidTo,
	}
}
