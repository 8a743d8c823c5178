package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmendoza/biosettle/internal/auth"
	"github.com/cmendoza/biosettle/internal/config"
	"github.com/cmendoza/biosettle/internal/finance"
	"github.com/cmendoza/biosettle/internal/metrics"
	"github.com/cmendoza/biosettle/internal/settlement"
	"github.com/cmendoza/biosettle/internal/storage"
	"github.com/cmendoza/biosettle/internal/tariffs"
)

// LoadDTO carries a load in calculation requests.
type LoadDTO struct {
	NetWeightTons   float64 `json:"net_weight_tons"`
	OriginID        int64   `json:"origin_id"`
	DestinationID   int64   `json:"destination_id"`
	GoesToTreatment bool    `json:"goes_to_treatment"`
}

// TripCostRequest asks for an ad hoc trip cost quote.
type TripCostRequest struct {
	Period      string    `json:"period"`
	VehicleType string    `json:"vehicle_type"`
	Loads       []LoadDTO `json:"loads"`
}

// LoadRevenueRequest asks for an ad hoc revenue quote for one load.
type LoadRevenueRequest struct {
	Period   string  `json:"period"`
	ClientID int64   `json:"client_id"`
	Load     LoadDTO `json:"load"`
}

// LoginRequest carries user credentials. ExpiresIn optionally bounds the
// issued token's lifetime ("never", "30d", "4w", a Go duration, or an
// absolute date); it defaults to 24h.
type LoginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	ExpiresIn string `json:"expires_in,omitempty"`
}

// LoginResponse returns the freshly minted API token.
type LoginResponse struct {
	Token     string     `json:"token"`
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type V1Handler struct {
	settleSvc *settlement.Service
	closer    *settlement.Closer
	tariffSvc *tariffs.Service
	st        storage.Storage
	authSvc   *auth.Service
}

func RegisterV1Routes(mux *http.ServeMux, settleSvc *settlement.Service, closer *settlement.Closer, tariffSvc *tariffs.Service, st storage.Storage, authSvc *auth.Service) {
	h := &V1Handler{
		settleSvc: settleSvc,
		closer:    closer,
		tariffSvc: tariffSvc,
		st:        st,
		authSvc:   authSvc,
	}

	// Helper to wrap handler with auth middleware if authSvc is present
	withAuth := func(handler http.HandlerFunc) http.Handler {
		if authSvc == nil {
			return handler
		}
		return authSvc.Middleware(handler)
	}

	mux.HandleFunc("/api/v1/auth/login", h.Login)
	mux.Handle("/api/v1/calculations/trip-cost", withAuth(instrument("/api/v1/calculations/trip-cost", h.TripCost)))
	mux.Handle("/api/v1/calculations/load-revenue", withAuth(instrument("/api/v1/calculations/load-revenue", h.LoadRevenue)))
	mux.Handle("/api/v1/settlements/", withAuth(instrument("/api/v1/settlements", h.HandleSettlements)))
	mux.Handle("/api/v1/periods/", withAuth(instrument("/api/v1/periods", h.HandlePeriods)))
	mux.Handle("/api/v1/tariffs/contractor", withAuth(instrument("/api/v1/tariffs/contractor", h.HandleContractorTariffs)))
	mux.Handle("/api/v1/tariffs/contractor/", withAuth(instrument("/api/v1/tariffs/contractor", h.HandleContractorTariff)))
	mux.Handle("/api/v1/tariffs/client", withAuth(instrument("/api/v1/tariffs/client", h.HandleClientTariffs)))
	mux.Handle("/api/v1/tariffs/client/", withAuth(instrument("/api/v1/tariffs/client", h.HandleClientTariff)))
	mux.Handle("/api/v1/tariffs/import", withAuth(instrument("/api/v1/tariffs/import", h.ImportTariffs)))
	mux.Handle("/api/v1/routes", withAuth(instrument("/api/v1/routes", h.HandleRoutes)))
	mux.Handle("/api/v1/loads", withAuth(instrument("/api/v1/loads", h.HandleLoads)))
	mux.Handle("/api/v1/loads/", withAuth(instrument("/api/v1/loads", h.HandleLoad)))
}

// instrument wraps a handler with request count and duration metrics.
func instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(path).Inc()
		defer func() {
			metrics.RequestDurationSeconds.WithLabelValues(path).Observe(time.Since(start).Seconds())
		}()
		next(w, r)
	}
}

// allow enforces an RBAC check when auth is enabled.
func (h *V1Handler) allow(w http.ResponseWriter, r *http.Request, obj, act string) bool {
	if h.authSvc == nil {
		return true
	}
	allowed, err := h.authSvc.Enforce(getUserID(r), obj, act)
	if err != nil || !allowed {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func getUserID(r *http.Request) string {
	token, ok := r.Context().Value(auth.TokenContextKey).(*storage.Token)
	if !ok {
		return ""
	}
	return token.UserID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeEngineError maps calculation failures to HTTP status codes. Missing
// tariffs and routes are configuration gaps (422); everything else typed is
// bad input (400).
func writeEngineError(w http.ResponseWriter, path string, err error) {
	status := http.StatusInternalServerError
	switch finance.KindOf(err) {
	case finance.KindMissingTariff, finance.KindInvalidRoute:
		status = http.StatusUnprocessableEntity
	case finance.KindInvalidWeight, finance.KindInvalidConversionRate,
		finance.KindInvalidFuelPrice, finance.KindEmptyLoadList, finance.KindInvalidInput:
		status = http.StatusBadRequest
	}
	if errors.Is(err, settlement.ErrCycleNotFound) {
		status = http.StatusNotFound
	}
	metrics.RequestErrorsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func toFinanceLoads(dtos []LoadDTO) []finance.Load {
	loads := make([]finance.Load, 0, len(dtos))
	for _, d := range dtos {
		loads = append(loads, finance.Load{
			NetWeightTons:   decimal.NewFromFloat(d.NetWeightTons),
			OriginID:        d.OriginID,
			DestinationID:   d.DestinationID,
			GoesToTreatment: d.GoesToTreatment,
		})
	}
	return loads
}

// Login authenticates a user and issues an API token valid for 24 hours.
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} LoginResponse
// @Router /api/v1/auth/login [post]
func (h *V1Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.authSvc == nil {
		http.Error(w, "Authentication disabled", http.StatusNotImplemented)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.authSvc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	expiresIn := req.ExpiresIn
	if expiresIn == "" {
		expiresIn = "24h"
	}
	expiresAt, err := auth.ParseExpirationDuration(expiresIn)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, raw, err := h.authSvc.CreateToken(r.Context(), user.ID, "login", user.Role, expiresAt)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: raw, Role: user.Role, ExpiresAt: expiresAt})
}

// TripCost quotes the transport cost of one trip.
// @Summary Calculate trip cost
// @Tags calculations
// @Accept json
// @Produce json
// @Router /api/v1/calculations/trip-cost [post]
func (h *V1Handler) TripCost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.allow(w, r, "calculations", "read") {
		return
	}

	var req TripCostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.settleSvc.CalculateTripCost(r.Context(), req.Period, req.VehicleType, toFinanceLoads(req.Loads))
	if err != nil {
		writeEngineError(w, "/api/v1/calculations/trip-cost", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LoadRevenue quotes the client revenue of one load.
// @Summary Calculate load revenue
// @Tags calculations
// @Accept json
// @Produce json
// @Router /api/v1/calculations/load-revenue [post]
func (h *V1Handler) LoadRevenue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.allow(w, r, "calculations", "read") {
		return
	}

	var req LoadRevenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	loads := toFinanceLoads([]LoadDTO{req.Load})
	res, err := h.settleSvc.CalculateLoadRevenue(r.Context(), req.Period, req.ClientID, loads[0])
	if err != nil {
		writeEngineError(w, "/api/v1/calculations/load-revenue", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleSettlements serves /api/v1/settlements/{period}. A force=true query
// parameter recomputes the settlement instead of returning the cached
// snapshot, and requires write permission.
// @Summary Get period settlement
// @Tags settlements
// @Produce json
// @Param period path string true "Period key (YYYY-MM)"
// @Router /api/v1/settlements/{period} [get]
func (h *V1Handler) HandleSettlements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	periodKey := strings.TrimPrefix(r.URL.Path, "/api/v1/settlements/")
	if periodKey == "" || strings.Contains(periodKey, "/") {
		http.NotFound(w, r)
		return
	}
	if _, _, err := settlement.ParsePeriodKey(periodKey); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	force := r.URL.Query().Get("force") == "true"
	obj, act := "settlements", "read"
	if force {
		act = "write"
	}
	if !h.allow(w, r, obj, act) {
		return
	}

	res, err := h.settleSvc.SettlePeriod(r.Context(), periodKey, force)
	if err != nil {
		writeEngineError(w, "/api/v1/settlements", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePeriods serves /api/v1/periods/{period} (GET, PUT) and
// /api/v1/periods/{period}/close (POST).
func (h *V1Handler) HandlePeriods(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/periods/")
	parts := strings.Split(path, "/")

	periodKey := parts[0]
	if _, _, err := settlement.ParsePeriodKey(periodKey); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(parts) == 2 && parts[1] == "close" {
		h.closePeriod(w, r, periodKey)
		return
	}
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !h.allow(w, r, "settlements", "read") {
			return
		}
		cycle, err := h.st.GetEconomicCycle(r.Context(), periodKey)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		if cycle == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, cycle)

	case http.MethodPut:
		if !h.allow(w, r, "settlements", "write") {
			return
		}
		var req struct {
			UFValue   float64 `json:"uf_value"`
			FuelPrice float64 `json:"fuel_price"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.UFValue <= 0 || req.FuelPrice <= 0 {
			http.Error(w, "uf_value and fuel_price must be positive", http.StatusBadRequest)
			return
		}

		existing, err := h.st.GetEconomicCycle(r.Context(), periodKey)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		if existing != nil && existing.Status == storage.CycleClosed {
			http.Error(w, "cycle is closed", http.StatusConflict)
			return
		}

		year, month, _ := settlement.ParsePeriodKey(periodKey)
		start, end := settlement.PeriodBounds(year, month)
		cycle := storage.EconomicCycle{
			PeriodKey: periodKey,
			UFValue:   req.UFValue,
			FuelPrice: req.FuelPrice,
			Status:    storage.CycleOpen,
			StartDate: start,
			EndDate:   end,
		}
		if err := h.st.UpsertEconomicCycle(r.Context(), cycle); err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, cycle)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// closePeriod performs the accounting closure for one period.
// @Summary Close billing period
// @Tags settlements
// @Produce json
// @Param period path string true "Period key (YYYY-MM)"
// @Router /api/v1/periods/{period}/close [post]
func (h *V1Handler) closePeriod(w http.ResponseWriter, r *http.Request, periodKey string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.allow(w, r, "settlements", "write") {
		return
	}

	res, err := h.closer.ClosePeriod(r.Context(), periodKey)
	if err != nil {
		switch {
		case errors.Is(err, settlement.ErrCycleNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, settlement.ErrCycleClosed):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleContractorTariffs serves /api/v1/tariffs/contractor (GET list, PUT upsert).
func (h *V1Handler) HandleContractorTariffs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !h.allow(w, r, "tariffs", "read") {
			return
		}
		list, err := h.st.ListContractorTariffs(r.Context())
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case http.MethodPut:
		if !h.allow(w, r, "tariffs", "write") {
			return
		}
		var req storage.ContractorTariff
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !finance.VehicleType(req.VehicleType).Valid() {
			http.Error(w, fmt.Sprintf("unknown vehicle type %q", req.VehicleType), http.StatusBadRequest)
			return
		}
		if req.BaseRatePerTonKm <= 0 || req.MinWeightTons < 0 || req.BaseFuelPrice <= 0 {
			http.Error(w, "rate, minimum weight and base fuel price must be positive", http.StatusBadRequest)
			return
		}
		if err := h.st.UpsertContractorTariff(r.Context(), req); err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, req)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleContractorTariff serves /api/v1/tariffs/contractor/{vehicleType}.
func (h *V1Handler) HandleContractorTariff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.allow(w, r, "tariffs", "read") {
		return
	}

	vt := strings.TrimPrefix(r.URL.Path, "/api/v1/tariffs/contractor/")
	t, err := h.st.GetContractorTariff(r.Context(), strings.ToUpper(vt))
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if t == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleClientTariffs serves /api/v1/tariffs/client (GET list by client_id, POST create).
func (h *V1Handler) HandleClientTariffs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !h.allow(w, r, "tariffs", "read") {
			return
		}
		clientID, err := strconv.ParseInt(r.URL.Query().Get("client_id"), 10, 64)
		if err != nil {
			http.Error(w, "client_id query parameter required", http.StatusBadRequest)
			return
		}
		list, err := h.st.ListClientTariffs(r.Context(), clientID)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case http.MethodPost:
		if !h.allow(w, r, "tariffs", "write") {
			return
		}
		var req storage.ClientTariff
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		// Validate through the engine constructor before persisting.
		if _, err := finance.NewClientTariff(
			req.ClientID,
			finance.Concept(req.Concept),
			decimal.NewFromFloat(req.RatePerTon),
			decimal.NewFromFloat(req.MinWeightTons),
			req.ValidFrom, req.ValidTo,
		); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id, err := h.st.SaveClientTariff(r.Context(), req)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		req.ID = id
		writeJSON(w, http.StatusCreated, req)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleClientTariff serves /api/v1/tariffs/client/{id} (DELETE).
func (h *V1Handler) HandleClientTariff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.allow(w, r, "tariffs", "write") {
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/tariffs/client/")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		http.Error(w, "invalid tariff id", http.StatusBadRequest)
		return
	}
	if err := h.st.DeleteClientTariff(r.Context(), uint(id)); err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportTariffs parses a tariff annex document and upserts the schedule.
// @Summary Import tariff schedule from PDF
// @Tags tariffs
// @Accept json
// @Produce json
// @Router /api/v1/tariffs/import [post]
func (h *V1Handler) ImportTariffs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.allow(w, r, "tariffs", "write") {
		return
	}

	var req struct {
		Parser string `json:"parser"`
		Path   string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Parser == "" {
		req.Parser = "anexo"
	}
	if req.Path == "" {
		req.Path = config.FromEnv().TariffPDFPath
	}

	res, err := h.tariffSvc.ImportPDF(r.Context(), req.Parser, req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleRoutes serves /api/v1/routes (GET list, POST upsert).
func (h *V1Handler) HandleRoutes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !h.allow(w, r, "tariffs", "read") {
			return
		}
		list, err := h.st.ListRoutes(r.Context())
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case http.MethodPost:
		if !h.allow(w, r, "tariffs", "write") {
			return
		}
		var req storage.Route
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if _, err := finance.NewDistanceRoute(req.OriginID, req.DestinationID, decimal.NewFromFloat(req.DistanceKm), req.IsSegmentLink); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.st.UpsertRoute(r.Context(), req); err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, req)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleLoads serves /api/v1/loads (GET list by date range or trip, POST create).
func (h *V1Handler) HandleLoads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !h.allow(w, r, "loads", "read") {
			return
		}
		if tripID := r.URL.Query().Get("trip_id"); tripID != "" {
			list, err := h.st.ListLoadsByTrip(r.Context(), tripID)
			if err != nil {
				http.Error(w, "Internal error", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, list)
			return
		}

		from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
		if err != nil {
			http.Error(w, "from and to query parameters required (YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
		if err != nil {
			http.Error(w, "from and to query parameters required (YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		list, err := h.st.ListLoadsInRange(r.Context(), from, to)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case http.MethodPost:
		if !h.allow(w, r, "loads", "write") {
			return
		}
		var req storage.Load
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.ID == "" || req.TripID == "" {
			http.Error(w, "id and trip_id are required", http.StatusBadRequest)
			return
		}
		if !finance.VehicleType(req.VehicleType).Valid() {
			http.Error(w, fmt.Sprintf("unknown vehicle type %q", req.VehicleType), http.StatusBadRequest)
			return
		}
		if req.NetWeightTons <= 0 {
			http.Error(w, "net_weight_tons must be positive", http.StatusBadRequest)
			return
		}
		req.FinancialStatus = storage.LoadPending
		if err := h.st.CreateLoad(r.Context(), req); err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, req)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleLoad serves /api/v1/loads/{id} (GET).
func (h *V1Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.allow(w, r, "loads", "read") {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/loads/")
	l, err := h.st.GetLoad(r.Context(), id)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if l == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, l)
}
