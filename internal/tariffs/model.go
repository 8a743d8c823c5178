// Package tariffs imports tariff schedules from contract annex documents
// and persists them as contractor and client tariffs.
package tariffs

import "time"

// ContractorEntry is one contractor pricing row extracted from a schedule.
type ContractorEntry struct {
	VehicleType      string  `json:"vehicle_type"`
	BaseRatePerTonKm float64 `json:"base_rate_per_ton_km"`
	MinWeightTons    float64 `json:"min_weight_tons"`
	BaseFuelPrice    float64 `json:"base_fuel_price"`
}

// ClientEntry is one client concept price extracted from a schedule.
type ClientEntry struct {
	ClientID      int64     `json:"client_id"`
	Concept       string    `json:"concept"`
	RatePerTon    float64   `json:"rate_per_ton"`
	MinWeightTons float64   `json:"min_weight_tons"`
	ValidFrom     time.Time `json:"valid_from"`
}

// Schedule is the parsed content of one tariff schedule document.
type Schedule struct {
	Source     string            `json:"source"`
	FetchedAt  time.Time         `json:"fetched_at"`
	Contractor []ContractorEntry `json:"contractor"`
	Clients    []ClientEntry     `json:"clients"`
}
