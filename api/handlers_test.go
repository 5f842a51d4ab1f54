/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Customer and contract CRUD round trips
- CHF conversion at contract intake
- Computed metrics and analytics endpoints
- Settings defaults and updates
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provisio/contract-engine/engine"
	"github.com/provisio/contract-engine/factory"
	"github.com/provisio/contract-engine/report"
	"github.com/provisio/contract-engine/store/sqlite"
)

// newTestServer creates a router over an in-memory store with default
// settings, standard commission rates, and a fixed clock.
func newTestServer(t *testing.T) (*sqlite.Store, http.Handler) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.SaveSettings(ctx, factory.SettingsFromJSON(factory.SettingsJSON{})))
	require.NoError(t, store.SaveRateSchedule(ctx, engine.RateSchedule{
		ID:        "rs-test",
		ValidFrom: engine.Date(2020, time.January, 1),
		Rates:     engine.DefaultCommissionRates(),
	}))

	h := NewHandler(store)
	h.Now = func() time.Time { return engine.Date(2025, time.June, 1) }
	return store, NewRouter(h)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func createCustomer(t *testing.T, router http.Handler, name string) CustomerDTO {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/customers", CustomerRequest{
		Name:           name,
		City:           "München",
		PostalCode:     "80331",
		CustomerNumber: "K-1001",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[CustomerDTO](t, rec)
}

// =============================================================================
// CUSTOMER TESTS
// =============================================================================

func TestCustomerCRUD(t *testing.T) {
	_, router := newTestServer(t)

	// WHEN: Creating a customer
	created := createCustomer(t, router, "Mustermann GmbH")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Deutschland", created.Country) // default

	// THEN: It can be fetched
	rec := doJSON(t, router, http.MethodGet, "/api/customers/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mustermann GmbH", decode[CustomerDTO](t, rec).Name)

	// WHEN: Updating it
	rec = doJSON(t, router, http.MethodPut, "/api/customers/"+created.ID, CustomerRequest{
		Name: "Mustermann AG", City: "Berlin", CustomerNumber: "K-1001",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/customers/"+created.ID, nil)
	assert.Equal(t, "Mustermann AG", decode[CustomerDTO](t, rec).Name)

	// WHEN: Deleting it
	rec = doJSON(t, router, http.MethodDelete, "/api/customers/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/customers/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateCustomer_RequiresName(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/customers", CustomerRequest{City: "Berlin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// CONTRACT TESTS
// =============================================================================

func TestCreateContract_EUR(t *testing.T) {
	_, router := newTestServer(t)
	customer := createCustomer(t, router, "Beispiel AG")

	rec := doJSON(t, router, http.MethodPost, "/api/contracts", ContractRequest{
		CustomerID:           customer.ID,
		SoftwareRentalAmount: 1000,
		StartDate:            "2024-06-01",
		NumberOfSeats:        5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	dto := decode[ContractDTO](t, rec)
	assert.Equal(t, 1000.0, dto.SoftwareRentalAmount)
	assert.Equal(t, "2024-06-01", dto.StartDate)
	assert.Equal(t, 5, dto.NumberOfSeats)
	assert.Nil(t, dto.EndDate)
}

func TestCreateContract_CHFConvertedAtIntake(t *testing.T) {
	// GIVEN: A Swiss customer submitting amounts in CHF
	_, router := newTestServer(t)
	customer := createCustomer(t, router, "Testfirma Schweiz")

	// WHEN: Creating the contract with currency CHF
	rec := doJSON(t, router, http.MethodPost, "/api/contracts", ContractRequest{
		CustomerID:           customer.ID,
		SoftwareRentalAmount: 100,
		SoftwareCareAmount:   200,
		Currency:             "CHF",
		StartDate:            "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// THEN: Stored amounts are EUR at the fixed rate
	dto := decode[ContractDTO](t, rec)
	assert.Equal(t, 95.0, dto.SoftwareRentalAmount)
	assert.Equal(t, 190.0, dto.SoftwareCareAmount)
}

func TestCreateContract_UnknownCurrencyRejected(t *testing.T) {
	_, router := newTestServer(t)
	customer := createCustomer(t, router, "Beispiel AG")

	rec := doJSON(t, router, http.MethodPost, "/api/contracts", ContractRequest{
		CustomerID:           customer.ID,
		SoftwareRentalAmount: 100,
		Currency:             "USD",
		StartDate:            "2024-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateContract_UnknownCustomer(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/contracts", ContractRequest{
		CustomerID:           "missing",
		SoftwareRentalAmount: 100,
		StartDate:            "2024-01-01",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateContract_BadStartDate(t *testing.T) {
	_, router := newTestServer(t)
	customer := createCustomer(t, router, "Beispiel AG")

	rec := doJSON(t, router, http.MethodPost, "/api/contracts", ContractRequest{
		CustomerID: customer.ID,
		StartDate:  "01.06.2024",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetContractMetrics(t *testing.T) {
	// GIVEN: An active contract one year old (clock fixed at 2025-06-01)
	_, router := newTestServer(t)
	customer := createCustomer(t, router, "Demo Software GmbH")

	rec := doJSON(t, router, http.MethodPost, "/api/contracts", ContractRequest{
		CustomerID:           customer.ID,
		SoftwareRentalAmount: 1000,
		StartDate:            "2024-06-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	contract := decode[ContractDTO](t, rec)

	// WHEN: Fetching computed metrics
	rec = doJSON(t, router, http.MethodGet, "/api/contracts/"+contract.ID+"/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: Status, price and commission reflect the standard rates
	m := decode[ContractMetricsDTO](t, rec)
	assert.Equal(t, "active", m.Status)
	assert.Equal(t, 12, m.MonthsRunning)
	assert.Equal(t, 1000.0, m.CurrentPrice)
	assert.Equal(t, 200.0, m.CurrentCommission)
	assert.Positive(t, m.ExitPayout)
}

// =============================================================================
// SETTINGS TESTS
// =============================================================================

func TestGetSettings_DefaultsWhenUnsaved(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	router := NewRouter(NewHandler(store))

	rec := doJSON(t, router, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	s := decode[factory.SettingsJSON](t, rec)
	require.NotNil(t, s.FounderDelayMonths)
	assert.Equal(t, factory.DefaultFounderDelayMonths, *s.FounderDelayMonths)
}

func TestUpdateSettings_RoundTrip(t *testing.T) {
	_, router := newTestServer(t)

	tax := 35.0
	rec := doJSON(t, router, http.MethodPut, "/api/settings", factory.SettingsJSON{
		PersonalTaxRate: &tax,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/settings", nil)
	s := decode[factory.SettingsJSON](t, rec)
	require.NotNil(t, s.PersonalTaxRate)
	assert.Equal(t, 35.0, *s.PersonalTaxRate)
}

// =============================================================================
// ANALYTICS TESTS
// =============================================================================

func TestGetDashboard(t *testing.T) {
	_, router := newTestServer(t)
	customer := createCustomer(t, router, "Großkunde International")

	rec := doJSON(t, router, http.MethodPost, "/api/contracts", ContractRequest{
		CustomerID:           customer.ID,
		SoftwareRentalAmount: 1000,
		StartDate:            "2023-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/analytics/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	d := decode[DashboardDTO](t, rec)
	assert.Equal(t, 1, d.TotalCustomers)
	assert.Equal(t, 1, d.TotalActiveContracts)
	assert.Equal(t, 1000.0, d.TotalMonthlyRevenue)
	assert.Equal(t, 200.0, d.TotalMonthlyCommission)
	// 42% default tax
	assert.Equal(t, 116.0, d.TotalMonthlyNetIncome)
	require.Len(t, d.TopCustomers, 1)
	assert.Equal(t, "Großkunde International", d.TopCustomers[0].CustomerName)
}

func TestGetForecast_DefaultHorizon(t *testing.T) {
	_, router := newTestServer(t)
	customer := createCustomer(t, router, "Beispiel AG")

	rec := doJSON(t, router, http.MethodPost, "/api/contracts", ContractRequest{
		CustomerID:           customer.ID,
		SoftwareRentalAmount: 500,
		StartDate:            "2023-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/analytics/forecast", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	f := decode[ForecastDTO](t, rec)
	require.Len(t, f.Months, 12)
	assert.Equal(t, "2025-06", f.Months[0].Date)
	assert.Equal(t, 500.0, f.Months[0].TotalRevenue)
	assert.Equal(t, report.TrendStable, f.KPIs.Trend)
}

func TestGetForecast_InvalidMonths(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/analytics/forecast?months=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/analytics/forecast?months=-3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCustomerAnalytics(t *testing.T) {
	_, router := newTestServer(t)
	customer := createCustomer(t, router, "Klein & Fein GmbH")

	for _, amount := range []float64{1000, 500} {
		rec := doJSON(t, router, http.MethodPost, "/api/contracts", ContractRequest{
			CustomerID:           customer.ID,
			SoftwareRentalAmount: amount,
			StartDate:            "2023-01-01",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/analytics/customer/"+customer.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode[CustomerAnalyticsDTO](t, rec)
	assert.Equal(t, customer.ID, out.Customer.ID)
	assert.Equal(t, 2, out.Metrics.ActiveContracts)
	assert.Equal(t, 1500.0, out.Metrics.TotalMonthlyRevenue)
	assert.Equal(t, 300.0, out.Metrics.TotalMonthlyCommission)
	assert.Len(t, out.Contracts, 2)
}

func TestAnalytics_MissingSettingsFails(t *testing.T) {
	// GIVEN: A store that has never had settings saved
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	router := NewRouter(NewHandler(store))

	// THEN: Analytics refuse to compute
	rec := doJSON(t, router, http.MethodGet, "/api/analytics/dashboard", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
