package tariffs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cmendoza/biosettle/internal/storage"
)

// Service imports parsed tariff schedules into storage.
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

// ImportResult reports how many tariff rows an import wrote.
type ImportResult struct {
	ContractorTariffs int `json:"contractor_tariffs"`
	ClientTariffs     int `json:"client_tariffs"`
}

// ImportPDF parses the schedule document at path with the named parser and
// upserts every row it contains.
func (s *Service) ImportPDF(ctx context.Context, parserKey, path string) (*ImportResult, error) {
	parser, ok := GetParser(parserKey)
	if !ok {
		return nil, fmt.Errorf("no parser registered for format: %s", parserKey)
	}
	sched, err := parser.ParsePDF(path)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %s: %w", path, err)
	}
	return s.importSchedule(ctx, sched)
}

func (s *Service) importSchedule(ctx context.Context, sched *Schedule) (*ImportResult, error) {
	var res ImportResult

	for _, entry := range sched.Contractor {
		err := s.store.UpsertContractorTariff(ctx, storage.ContractorTariff{
			VehicleType:      entry.VehicleType,
			BaseRatePerTonKm: entry.BaseRatePerTonKm,
			MinWeightTons:    entry.MinWeightTons,
			BaseFuelPrice:    entry.BaseFuelPrice,
		})
		if err != nil {
			return nil, fmt.Errorf("upsert contractor tariff %s: %w", entry.VehicleType, err)
		}
		res.ContractorTariffs++
	}

	for _, entry := range sched.Clients {
		_, err := s.store.SaveClientTariff(ctx, storage.ClientTariff{
			ClientID:      entry.ClientID,
			Concept:       entry.Concept,
			RatePerTon:    entry.RatePerTon,
			MinWeightTons: entry.MinWeightTons,
			ValidFrom:     entry.ValidFrom,
		})
		if err != nil {
			return nil, fmt.Errorf("save client tariff (client %d, %s): %w", entry.ClientID, entry.Concept, err)
		}
		res.ClientTariffs++
	}

	s.log.Info("tariff schedule imported",
		zap.String("source", sched.Source),
		zap.Int("contractor_rows", res.ContractorTariffs),
		zap.Int("client_rows", res.ClientTariffs),
	)
	return &res, nil
}
