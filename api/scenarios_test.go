/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:

	Tests that each scenario correctly sets up the expected state:
	- Customers and contracts are created
	- Settings and rule documents are saved
	- Analytics work on the loaded data
*/
package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provisio/contract-engine/store/sqlite"
)

func newScenarioServer(t *testing.T) (*sqlite.Store, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	// Scenario data is generated relative to the real clock
	h := NewHandler(store)
	h.Now = time.Now
	return store, NewRouter(h)
}

func TestListScenarios(t *testing.T) {
	_, router := newScenarioServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]ScenarioDTO](t, rec)
	require.Len(t, list, 3)
	assert.Equal(t, "demo-portfolio", list[0].ID)
}

func TestLoadScenario_DemoPortfolio(t *testing.T) {
	store, router := newScenarioServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load",
		LoadScenarioRequest{ScenarioID: "demo-portfolio"})
	require.Equal(t, http.StatusOK, rec.Code)

	ctx := context.Background()

	customers, err := store.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 10)

	contracts, err := store.ListContracts(ctx)
	require.NoError(t, err)
	assert.Len(t, contracts, 17)

	// Settings and rules are saved alongside the data
	_, err = store.GetSettings(ctx)
	require.NoError(t, err)

	increases, err := store.ListPriceIncreases(ctx)
	require.NoError(t, err)
	assert.Len(t, increases, 1)

	// Analytics are serviceable immediately after loading
	rec = doJSON(t, router, http.MethodGet, "/api/analytics/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[DashboardDTO](t, rec)
	assert.Equal(t, 10, d.TotalCustomers)
	assert.Positive(t, d.TotalMonthlyRevenue)
}

func TestLoadScenario_FounderCustomer(t *testing.T) {
	store, router := newScenarioServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load",
		LoadScenarioRequest{ScenarioID: "founder-customer"})
	require.Equal(t, http.StatusOK, rec.Code)

	contracts, err := store.ListContracts(context.Background())
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.True(t, contracts[0].IsFounderDiscount)

	// Commission is still delayed inside the founder period
	rec = doJSON(t, router, http.MethodGet, "/api/contracts/"+contracts[0].ID+"/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode[ContractMetricsDTO](t, rec)
	assert.Equal(t, "founder", m.Status)
	assert.Equal(t, 0.0, m.CurrentCommission)
}

func TestLoadScenario_PriceIncrease(t *testing.T) {
	store, router := newScenarioServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load",
		LoadScenarioRequest{ScenarioID: "price-increase"})
	require.Equal(t, http.StatusOK, rec.Code)

	contracts, err := store.ListContracts(context.Background())
	require.NoError(t, err)
	assert.Len(t, contracts, 3)

	// Long-standing customer pays the increased price; the recent one
	// is still grandfathered
	var oldPrice, newPrice float64
	for _, c := range contracts {
		rec = doJSON(t, router, http.MethodGet, "/api/contracts/"+c.ID+"/metrics", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		m := decode[ContractMetricsDTO](t, rec)
		switch c.ID {
		case "ct-pi-001":
			oldPrice = m.CurrentPrice
		case "ct-pi-002":
			newPrice = m.CurrentPrice
		}
	}
	assert.Equal(t, 540.0, oldPrice) // 500 + 8%
	assert.Equal(t, 250.0, newPrice) // locked in
}

func TestLoadScenario_Unknown(t *testing.T) {
	_, router := newScenarioServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load",
		LoadScenarioRequest{ScenarioID: "does-not-exist"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetDatabase(t *testing.T) {
	store, router := newScenarioServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load",
		LoadScenarioRequest{ScenarioID: "demo-portfolio"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	customers, err := store.ListCustomers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, customers)
}
