/*
handlers.go - HTTP request handlers

PURPOSE:

	Implements the REST API endpoints. Each handler:
	1. Parses and validates the request
	2. Calls into the store and the calculation engine
	3. Converts results to DTOs and writes the response

KEY DESIGN DECISIONS:
  - Handlers are methods on Handler (holds the store and a clock)
  - All computed views are evaluated fresh from stored inputs; nothing
    derived is persisted
  - Analytics require a saved settings document; a population without
    settings is a configuration error, not an empty result
  - CHF contract amounts are converted to EUR once at write time

ENDPOINT GROUPS:
  - Customers:     CRUD + per-customer analytics
  - Contracts:     CRUD + per-contract computed metrics
  - Rules:         price increases and commission rate schedules
  - Settings:      the singleton commission/payout configuration
  - Analytics:     dashboard and monthly forecast
  - Scenarios:     demo data loading (scenarios.go)
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/provisio/contract-engine/engine"
	"github.com/provisio/contract-engine/factory"
	"github.com/provisio/contract-engine/report"
	"github.com/provisio/contract-engine/store/sqlite"
)

// chfToEURRate is the fixed entry rate applied when a contract is
// submitted in CHF. Conversion happens once; stored amounts are EUR.
var chfToEURRate = decimal.NewFromFloat(0.95)

const defaultForecastMonths = 12

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store

	// Now is the evaluation clock. Overridable in tests.
	Now func() time.Time
}

// NewHandler creates a handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store: store,
		Now:   time.Now,
	}
}

// ruleSet is everything the engine needs besides the contracts.
type ruleSet struct {
	settings  engine.Settings
	increases []engine.PriceIncrease
	schedules []engine.RateSchedule
}

// loadRules fetches settings and rule documents. Missing settings is an
// internal error: analytics cannot run without a configured document.
func (h *Handler) loadRules(r *http.Request) (ruleSet, error) {
	ctx := r.Context()

	settings, err := h.Store.GetSettings(ctx)
	if err != nil {
		return ruleSet{}, err
	}
	increases, err := h.Store.ListPriceIncreases(ctx)
	if err != nil {
		return ruleSet{}, err
	}
	schedules, err := h.Store.ListRateSchedules(ctx)
	if err != nil {
		return ruleSet{}, err
	}
	return ruleSet{settings: settings, increases: increases, schedules: schedules}, nil
}

// =============================================================================
// CUSTOMER ENDPOINTS
// =============================================================================

// ListCustomers returns all customers.
// GET /api/customers
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Store.ListCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list customers", err)
		return
	}

	dtos := make([]CustomerDTO, len(customers))
	for i, c := range customers {
		dtos[i] = toCustomerDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCustomer returns a single customer.
// GET /api/customers/{id}
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.Store.GetCustomer(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get customer", err)
		return
	}

	writeJSON(w, http.StatusOK, toCustomerDTO(c))
}

// CreateCustomer creates a new customer.
// POST /api/customers
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	c := customerFromRequest(uuid.NewString(), req)
	if err := h.Store.SaveCustomer(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create customer", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCustomerDTO(c))
}

// UpdateCustomer replaces a customer's master data.
// PUT /api/customers/{id}
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.Store.GetCustomer(r.Context(), id); errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Customer not found", nil)
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get customer", err)
		return
	}

	var req CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c := customerFromRequest(id, req)
	if err := h.Store.SaveCustomer(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update customer", err)
		return
	}

	writeJSON(w, http.StatusOK, toCustomerDTO(c))
}

// DeleteCustomer removes a customer and, by cascade, its contracts.
// DELETE /api/customers/{id}
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.Store.DeleteCustomer(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete customer", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func customerFromRequest(id string, req CustomerRequest) engine.Customer {
	country := req.Country
	if country == "" {
		country = "Deutschland"
	}
	return engine.Customer{
		ID:             id,
		Name:           req.Name,
		Name2:          req.Name2,
		City:           req.City,
		PostalCode:     req.PostalCode,
		CustomerNumber: req.CustomerNumber,
		Country:        country,
	}
}

// =============================================================================
// CONTRACT ENDPOINTS
// =============================================================================

// ListContracts returns all contracts, optionally filtered by customer.
// GET /api/contracts?customer_id=...
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := r.URL.Query().Get("customer_id")

	var (
		contracts []engine.Contract
		err       error
	)
	if customerID != "" {
		contracts, err = h.Store.ListContractsByCustomer(ctx, customerID)
	} else {
		contracts, err = h.Store.ListContracts(ctx)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts", err)
		return
	}

	dtos := make([]ContractDTO, len(contracts))
	for i, c := range contracts {
		dtos[i] = toContractDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetContract returns a single contract.
// GET /api/contracts/{id}
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.Store.GetContract(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get contract", err)
		return
	}

	writeJSON(w, http.StatusOK, toContractDTO(c))
}

// CreateContract creates a new contract for a customer.
// POST /api/contracts
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, err := h.Store.GetCustomer(r.Context(), req.CustomerID); errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Customer not found", nil)
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get customer", err)
		return
	}

	c, err := contractFromRequest(uuid.NewString(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.Store.SaveContract(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create contract", err)
		return
	}

	writeJSON(w, http.StatusCreated, toContractDTO(c))
}

// UpdateContract replaces a contract.
// PUT /api/contracts/{id}
func (h *Handler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.Store.GetContract(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get contract", err)
		return
	}

	var req ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CustomerID == "" {
		req.CustomerID = existing.CustomerID
	}

	c, err := contractFromRequest(id, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.Store.SaveContract(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update contract", err)
		return
	}

	writeJSON(w, http.StatusOK, toContractDTO(c))
}

// DeleteContract removes a contract.
// DELETE /api/contracts/{id}
func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.Store.DeleteContract(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete contract", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetContractMetrics returns the computed view of one contract as of today.
// GET /api/contracts/{id}/metrics
func (h *Handler) GetContractMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	c, err := h.Store.GetContract(ctx, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get contract", err)
		return
	}

	rules, err := h.loadRules(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	// Grandfathering clock runs from the customer's first contract, not
	// this contract's own start.
	referenceDate, ok, err := h.Store.FirstContractDate(ctx, c.CustomerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve reference date", err)
		return
	}
	if !ok {
		referenceDate = c.StartDate
	}

	m := engine.ComputeContractMetrics(c, rules.settings, rules.increases, rules.schedules, h.Now(), referenceDate)
	writeJSON(w, http.StatusOK, toContractMetricsDTO(m))
}

func contractFromRequest(id string, req ContractRequest) (engine.Contract, error) {
	start, err := factory.ParseDate(req.StartDate)
	if err != nil {
		return engine.Contract{}, errors.New("invalid start_date format (use YYYY-MM-DD)")
	}

	var end *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		d, err := factory.ParseDate(*req.EndDate)
		if err != nil {
			return engine.Contract{}, errors.New("invalid end_date format (use YYYY-MM-DD)")
		}
		end = &d
	}

	switch req.Currency {
	case "", "EUR", "CHF":
	default:
		return engine.Contract{}, errors.New("unsupported currency (use EUR or CHF)")
	}

	amount := func(v float64) engine.Money {
		m := engine.NewMoney(v)
		if req.Currency == "CHF" {
			m = engine.Money{Value: m.Value.Mul(chfToEURRate)}
		}
		return m.Round2()
	}

	seats := req.NumberOfSeats
	if seats <= 0 {
		seats = 1
	}

	return engine.Contract{
		ID:                            id,
		CustomerID:                    req.CustomerID,
		SoftwareRentalAmount:          amount(req.SoftwareRentalAmount),
		SoftwareCareAmount:            amount(req.SoftwareCareAmount),
		AppsAmount:                    amount(req.AppsAmount),
		PurchaseAmount:                amount(req.PurchaseAmount),
		CloudAmount:                   amount(req.CloudAmount),
		StartDate:                     start,
		EndDate:                       end,
		IsFounderDiscount:             req.IsFounderDiscount,
		NumberOfSeats:                 seats,
		ExcludedPriceIncreaseIDs:      req.ExcludedPriceIncreaseIDs,
		IncludedEarlyPriceIncreaseIDs: req.IncludedEarlyPriceIncreaseIDs,
		Notes:                         req.Notes,
	}, nil
}

// =============================================================================
// PRICE INCREASE ENDPOINTS
// =============================================================================

// ListPriceIncreases returns all price increase rules.
// GET /api/price-increases
func (h *Handler) ListPriceIncreases(w http.ResponseWriter, r *http.Request) {
	increases, err := h.Store.ListPriceIncreases(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list price increases", err)
		return
	}

	dtos := make([]factory.PriceIncreaseJSON, len(increases))
	for i, p := range increases {
		dtos[i] = factory.PriceIncreaseToJSON(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePriceIncrease creates a price increase rule.
// POST /api/price-increases
func (h *Handler) CreatePriceIncrease(w http.ResponseWriter, r *http.Request) {
	var req factory.PriceIncreaseJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	p, err := factory.PriceIncreaseFromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid price increase", err)
		return
	}

	if err := h.Store.SavePriceIncrease(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save price increase", err)
		return
	}

	writeJSON(w, http.StatusCreated, factory.PriceIncreaseToJSON(p))
}

// DeletePriceIncrease removes a price increase rule.
// DELETE /api/price-increases/{id}
func (h *Handler) DeletePriceIncrease(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.Store.DeletePriceIncrease(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Price increase not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete price increase", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// COMMISSION RATE ENDPOINTS
// =============================================================================

// ListRateSchedules returns all commission rate schedules.
// GET /api/commission-rates
func (h *Handler) ListRateSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.Store.ListRateSchedules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list commission rates", err)
		return
	}

	dtos := make([]factory.RateScheduleJSON, len(schedules))
	for i, s := range schedules {
		dtos[i] = factory.RateScheduleToJSON(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRateSchedule creates a commission rate schedule.
// POST /api/commission-rates
func (h *Handler) CreateRateSchedule(w http.ResponseWriter, r *http.Request) {
	var req factory.RateScheduleJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	rs, err := factory.RateScheduleFromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate schedule", err)
		return
	}

	if err := h.Store.SaveRateSchedule(r.Context(), rs); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rate schedule", err)
		return
	}

	writeJSON(w, http.StatusCreated, factory.RateScheduleToJSON(rs))
}

// DeleteRateSchedule removes a commission rate schedule.
// DELETE /api/commission-rates/{id}
func (h *Handler) DeleteRateSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.Store.DeleteRateSchedule(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Rate schedule not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete rate schedule", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SETTINGS ENDPOINTS
// =============================================================================

// GetSettings returns the commission/payout settings document. If none
// has been saved yet, the defaults are returned (but not persisted).
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetSettings(r.Context())
	if errors.Is(err, sqlite.ErrSettingsNotFound) {
		s = factory.SettingsFromJSON(factory.SettingsJSON{})
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	writeJSON(w, http.StatusOK, factory.SettingsToJSON(s))
}

// UpdateSettings replaces the settings document. Absent fields fall
// back to defaults.
// PUT /api/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req factory.SettingsJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s := factory.SettingsFromJSON(req)
	if err := h.Store.SaveSettings(r.Context(), s); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}

	writeJSON(w, http.StatusOK, factory.SettingsToJSON(s))
}

// =============================================================================
// ANALYTICS ENDPOINTS
// =============================================================================

// GetDashboard returns the population summary as of today.
// GET /api/analytics/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	rules, err := h.loadRules(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	population, err := h.Store.LoadPopulation(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load customers", err)
		return
	}

	d := report.ComputeDashboard(population, rules.settings, rules.increases, rules.schedules, h.Now(), 0)
	writeJSON(w, http.StatusOK, toDashboardDTO(d))
}

// GetForecast returns the monthly projection starting this month.
// GET /api/analytics/forecast?months=N  (default 12, capped at 36)
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	months := defaultForecastMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := parsePositiveInt(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "months must be a positive integer", nil)
			return
		}
		months = n
	}

	rules, err := h.loadRules(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	population, err := h.Store.LoadPopulation(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load customers", err)
		return
	}

	f := report.GenerateForecast(population, rules.settings, rules.increases, rules.schedules, h.Now(), months)
	writeJSON(w, http.StatusOK, toForecastDTO(f))
}

// GetCustomerAnalytics returns one customer with its rollup and the
// computed view of each of its contracts.
// GET /api/analytics/customer/{id}
func (h *Handler) GetCustomerAnalytics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	customer, err := h.Store.GetCustomer(ctx, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get customer", err)
		return
	}

	rules, err := h.loadRules(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	contracts, err := h.Store.ListContractsByCustomer(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts", err)
		return
	}

	cc := report.CustomerContracts{Customer: customer, Contracts: contracts}
	now := h.Now()
	metrics := report.ComputeCustomerMetrics(cc, rules.settings, rules.increases, rules.schedules, now)
	details := report.ComputeContractDetails(cc, rules.settings, rules.increases, rules.schedules, now)

	detailDTOs := make([]ContractDetailDTO, len(details))
	for i, d := range details {
		detailDTOs[i] = ContractDetailDTO{
			Contract: toContractDTO(d.Contract),
			Metrics:  toContractMetricsDTO(d.Metrics),
		}
	}

	writeJSON(w, http.StatusOK, CustomerAnalyticsDTO{
		Customer:  toCustomerDTO(customer),
		Metrics:   toCustomerMetricsDTO(metrics),
		Contracts: detailDTOs,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("not a positive number")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
