package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmendoza/biosettle/internal/auth"
	"github.com/cmendoza/biosettle/internal/notification"
	"github.com/cmendoza/biosettle/internal/settlement"
	"github.com/cmendoza/biosettle/internal/storage"
	"github.com/cmendoza/biosettle/internal/tariffs"
)

func newTestMux(t *testing.T) (*http.ServeMux, storage.Storage) {
	t.Helper()
	st := storage.NewMemory()
	ctx := t.Context()

	if err := st.UpsertEconomicCycle(ctx, storage.EconomicCycle{
		PeriodKey: "2025-11",
		UFValue:   37000,
		FuelPrice: 1200,
		Status:    storage.CycleOpen,
		StartDate: time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("seed cycle: %v", err)
	}
	if err := st.UpsertContractorTariff(ctx, storage.ContractorTariff{
		VehicleType:      "BATEA",
		BaseRatePerTonKm: 0.027,
		MinWeightTons:    15,
		BaseFuelPrice:    1000,
	}); err != nil {
		t.Fatalf("seed contractor tariff: %v", err)
	}
	if err := st.UpsertRoute(ctx, storage.Route{OriginID: 1, DestinationID: 10, DistanceKm: 50}); err != nil {
		t.Fatalf("seed route: %v", err)
	}
	for _, concept := range []string{"TRANSPORTE", "DISPOSICION", "TRATAMIENTO"} {
		rate := map[string]float64{"TRANSPORTE": 0.5, "DISPOSICION": 0.3, "TRATAMIENTO": 0.2}[concept]
		if _, err := st.SaveClientTariff(ctx, storage.ClientTariff{
			ClientID:   7,
			Concept:    concept,
			RatePerTon: rate,
			ValidFrom:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatalf("seed client tariff %s: %v", concept, err)
		}
	}

	settleSvc := settlement.NewService(st, nil)
	closer := settlement.NewCloser(st, notification.NewService(st), nil)
	tariffSvc := tariffs.NewService(st, nil)

	mux := http.NewServeMux()
	RegisterV1Routes(mux, settleSvc, closer, tariffSvc, st, nil)
	RegisterReferenceHandlers(mux)
	return mux, st
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestTripCostEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/calculations/trip-cost", TripCostRequest{
		Period:      "2025-11",
		VehicleType: "BATEA",
		Loads:       []LoadDTO{{NetWeightTons: 20, OriginID: 1, DestinationID: 10}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res settlement.TripSettlement
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if want := decimal.RequireFromString("32.4"); !res.CostUF.Equal(want) {
		t.Errorf("CostUF = %s, want %s", res.CostUF, want)
	}
	if want := decimal.RequireFromString("1198800"); !res.CostCLP.Equal(want) {
		t.Errorf("CostCLP = %s, want %s", res.CostCLP, want)
	}
	if want := decimal.RequireFromString("1.2"); !res.AdjustmentFactor.Equal(want) {
		t.Errorf("AdjustmentFactor = %s, want %s", res.AdjustmentFactor, want)
	}
}

func TestTripCostEndpoint_Errors(t *testing.T) {
	mux, _ := newTestMux(t)

	// Unknown period
	rec := doJSON(t, mux, http.MethodPost, "/api/v1/calculations/trip-cost", TripCostRequest{
		Period:      "2030-01",
		VehicleType: "BATEA",
		Loads:       []LoadDTO{{NetWeightTons: 20, OriginID: 1, DestinationID: 10}},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown period: status = %d, want 404", rec.Code)
	}

	// Missing route
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/calculations/trip-cost", TripCostRequest{
		Period:      "2025-11",
		VehicleType: "BATEA",
		Loads:       []LoadDTO{{NetWeightTons: 20, OriginID: 1, DestinationID: 99}},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing route: status = %d, want 422", rec.Code)
	}

	// Invalid weight
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/calculations/trip-cost", TripCostRequest{
		Period:      "2025-11",
		VehicleType: "BATEA",
		Loads:       []LoadDTO{{NetWeightTons: -1, OriginID: 1, DestinationID: 10}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid weight: status = %d, want 400", rec.Code)
	}
}

func TestLoadRevenueEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/calculations/load-revenue", LoadRevenueRequest{
		Period:   "2025-11",
		ClientID: 7,
		Load:     LoadDTO{NetWeightTons: 20, OriginID: 1, DestinationID: 10},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res settlement.LoadRevenue
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// 20t x (0.5 + 0.3) UF/t, no treatment.
	if want := decimal.RequireFromString("16"); !res.RevenueUF.Equal(want) {
		t.Errorf("RevenueUF = %s, want %s", res.RevenueUF, want)
	}
	if want := decimal.RequireFromString("592000"); !res.RevenueCLP.Equal(want) {
		t.Errorf("RevenueCLP = %s, want %s", res.RevenueCLP, want)
	}
}

func TestLoadLifecycleAndSettlement(t *testing.T) {
	mux, _ := newTestMux(t)

	load := storage.Load{
		ID:            "load-1",
		TripID:        "trip-1",
		ClientID:      7,
		VehicleType:   "BATEA",
		OriginID:      1,
		DestinationID: 10,
		NetWeightTons: 20,
		ServiceDate:   time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC),
	}
	rec := doJSON(t, mux, http.MethodPost, "/api/v1/loads", load)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create load: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/loads/load-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get load: status = %d", rec.Code)
	}
	var got storage.Load
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode load: %v", err)
	}
	if got.FinancialStatus != storage.LoadPending {
		t.Errorf("FinancialStatus = %s, want %s", got.FinancialStatus, storage.LoadPending)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/settlements/2025-11", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("settle: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res settlement.PeriodSettlement
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode settlement: %v", err)
	}
	if res.TripsProcessed != 1 || res.LoadsProcessed != 1 {
		t.Errorf("processed trips=%d loads=%d, want 1/1", res.TripsProcessed, res.LoadsProcessed)
	}
	if want := decimal.RequireFromString("32.4"); !res.TotalCostUF.Equal(want) {
		t.Errorf("TotalCostUF = %s, want %s", res.TotalCostUF, want)
	}

	// Close the period, then verify a second close conflicts.
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/periods/2025-11/close", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/periods/2025-11/close", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second close: status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/loads/load-1", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode load after close: %v", err)
	}
	if got.FinancialStatus != storage.LoadFrozen {
		t.Errorf("after close FinancialStatus = %s, want %s", got.FinancialStatus, storage.LoadFrozen)
	}
}

func TestPeriodUpsert(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPut, "/api/v1/periods/2025-12", map[string]float64{
		"uf_value": 37500, "fuel_price": 1250,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put period: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var cycle storage.EconomicCycle
	if err := json.Unmarshal(rec.Body.Bytes(), &cycle); err != nil {
		t.Fatalf("decode cycle: %v", err)
	}
	if want := time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC); !cycle.StartDate.Equal(want) {
		t.Errorf("StartDate = %v, want %v", cycle.StartDate, want)
	}
	if want := time.Date(2025, 12, 18, 0, 0, 0, 0, time.UTC); !cycle.EndDate.Equal(want) {
		t.Errorf("EndDate = %v, want %v", cycle.EndDate, want)
	}

	rec = doJSON(t, mux, http.MethodPut, "/api/v1/periods/2025-12", map[string]float64{
		"uf_value": 0, "fuel_price": 1250,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero uf_value: status = %d, want 400", rec.Code)
	}

	// Non-canonical keys must not create cycles no settlement will find.
	rec = doJSON(t, mux, http.MethodPut, "/api/v1/periods/2025-111", map[string]float64{
		"uf_value": 37500, "fuel_price": 1250,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed period key: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/periods/2026-01", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown period: status = %d, want 404", rec.Code)
	}
}

func TestContractorTariffEndpoints(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPut, "/api/v1/tariffs/contractor", storage.ContractorTariff{
		VehicleType:      "AMPLIROLL_CARRO",
		BaseRatePerTonKm: 0.029,
		MinWeightTons:    18,
		BaseFuelPrice:    1000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put tariff: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/tariffs/contractor/AMPLIROLL_CARRO", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get tariff: status = %d", rec.Code)
	}

	// A zero guaranteed minimum is a valid tariff.
	rec = doJSON(t, mux, http.MethodPut, "/api/v1/tariffs/contractor", storage.ContractorTariff{
		VehicleType:      "AMPLIROLL_SIMPLE",
		BaseRatePerTonKm: 0.025,
		MinWeightTons:    0,
		BaseFuelPrice:    1000,
	})
	if rec.Code != http.StatusOK {
		t.Errorf("zero minimum weight: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodPut, "/api/v1/tariffs/contractor", storage.ContractorTariff{
		VehicleType:      "AMPLIROLL_SIMPLE",
		BaseRatePerTonKm: 0.025,
		MinWeightTons:    -1,
		BaseFuelPrice:    1000,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative minimum weight: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPut, "/api/v1/tariffs/contractor", storage.ContractorTariff{
		VehicleType:      "TRACTOCAMION",
		BaseRatePerTonKm: 0.03,
		MinWeightTons:    18,
		BaseFuelPrice:    1000,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown vehicle type: status = %d, want 400", rec.Code)
	}
}

func TestLoginTokenExpiry(t *testing.T) {
	st := storage.NewMemory()
	authSvc, err := auth.NewService(st)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	if _, err := authSvc.Register(t.Context(), "maria", "s3cret", "accountant"); err != nil {
		t.Fatalf("register user: %v", err)
	}

	mux := http.NewServeMux()
	RegisterV1Routes(mux, settlement.NewService(st, nil), settlement.NewCloser(st, notification.NewService(st), nil), tariffs.NewService(st, nil), st, authSvc)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Username: "maria", Password: "s3cret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.ExpiresAt == nil {
		t.Fatal("default login should expire")
	}
	if got := time.Until(*resp.ExpiresAt); got < 23*time.Hour || got > 25*time.Hour {
		t.Errorf("default expiry %v from now, want about 24h", got)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Username: "maria", Password: "s3cret", ExpiresIn: "never",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login never: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp = LoginResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.ExpiresAt != nil {
		t.Errorf("expiry = %v, want none", resp.ExpiresAt)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Username: "maria", Password: "s3cret", ExpiresIn: "bogus",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus expiry: status = %d, want 400", rec.Code)
	}
}

func TestReferenceHandlers(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/vehicle-types", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("vehicle-types: status = %d", rec.Code)
	}
	var vt struct {
		VehicleTypes []string `json:"vehicle_types"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &vt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(vt.VehicleTypes) != 3 {
		t.Errorf("vehicle types = %v, want 3 entries", vt.VehicleTypes)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/concepts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("concepts: status = %d", rec.Code)
	}
}
