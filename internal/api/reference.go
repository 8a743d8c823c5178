package api

import (
	"encoding/json"
	"net/http"

	"github.com/cmendoza/biosettle/internal/finance"
)

// RegisterReferenceHandlers exposes the closed enumerations clients need to
// build requests: vehicle types and billing concepts.
func RegisterReferenceHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/vehicle-types", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		response := struct {
			VehicleTypes []finance.VehicleType `json:"vehicle_types"`
		}{
			VehicleTypes: []finance.VehicleType{
				finance.VehicleBatea,
				finance.VehicleAmplirollOnly,
				finance.VehicleAmplirollCarro,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	mux.HandleFunc("/api/v1/concepts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		response := struct {
			Concepts []finance.Concept `json:"concepts"`
		}{
			Concepts: finance.Concepts(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})
}
