/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates customers, contracts,
	rule documents, and settings that demonstrate specific features.

AVAILABLE SCENARIOS:

	demo-portfolio:    Ten customers across DE/CH/AT with mixed contracts
	founder-customer:  Single recent founder, commission still delayed
	price-increase:    Portfolio with a rollout showing grandfathering

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Save default settings and a commission rate schedule
 3. Create customers and contracts
 4. Optionally add price increase rules

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "demo-portfolio"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: writeJSON/writeError helpers
  - factory/documents.go: Settings defaults
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/provisio/contract-engine/engine"
	"github.com/provisio/contract-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "demo-portfolio",
		Name:        "Demo Portfolio",
		Description: "Ten customers with contracts across all revenue streams, including completed contracts with commission tails",
	},
	{
		ID:          "founder-customer",
		Name:        "Founder Customer",
		Description: "Single Existenzgruender with a recent start, commission delayed by the founder period",
	},
	{
		ID:          "price-increase",
		Name:        "Price Increase Rollout",
		Description: "Portfolio with an announced increase showing lock-in grandfathering and exclusions",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "demo-portfolio":
		err = h.loadDemoPortfolioScenario(ctx)
	case "founder-customer":
		err = h.loadFounderScenario(ctx)
	case "price-increase":
		err = h.loadPriceIncreaseScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// demoCustomers mirrors the kind of customer base the system is sized
// for: German Mittelstand plus one Swiss and one Austrian site. The last
// entry is the Existenzgruender used by the founder scenarios.
var demoCustomers = []engine.Customer{
	{ID: "cust-demo-001", CustomerNumber: "DEMO-001", Name: "Mustermann GmbH", Name2: "Zentrale", City: "München", PostalCode: "80331", Country: "DE"},
	{ID: "cust-demo-002", CustomerNumber: "DEMO-002", Name: "Beispiel AG", City: "Berlin", PostalCode: "10115", Country: "DE"},
	{ID: "cust-demo-003", CustomerNumber: "DEMO-003", Name: "Test & Partner", Name2: "Niederlassung Süd", City: "Stuttgart", PostalCode: "70173", Country: "DE"},
	{ID: "cust-demo-004", CustomerNumber: "DEMO-004", Name: "Muster Handwerk", City: "Hamburg", PostalCode: "20095", Country: "DE"},
	{ID: "cust-demo-005", CustomerNumber: "DEMO-005", Name: "Demo Software GmbH", Name2: "Entwicklung", City: "Frankfurt", PostalCode: "60311", Country: "DE"},
	{ID: "cust-demo-006", CustomerNumber: "DEMO-006", Name: "Testfirma Schweiz", City: "Zürich", PostalCode: "8001", Country: "CH"},
	{ID: "cust-demo-007", CustomerNumber: "DEMO-007", Name: "Beispiel Österreich", Name2: "Filiale Wien", City: "Wien", PostalCode: "1010", Country: "AT"},
	{ID: "cust-demo-008", CustomerNumber: "DEMO-008", Name: "Klein & Fein GmbH", City: "Köln", PostalCode: "50667", Country: "DE"},
	{ID: "cust-demo-009", CustomerNumber: "DEMO-009", Name: "Großkunde International", Name2: "Hauptsitz", City: "Düsseldorf", PostalCode: "40213", Country: "DE"},
	{ID: "cust-demo-010", CustomerNumber: "DEMO-010", Name: "Existenzgründer Start", City: "Leipzig", PostalCode: "04109", Country: "DE"},
}

func (h *Handler) saveDefaultRules(ctx context.Context) error {
	if err := h.Store.SaveSettings(ctx, factory.SettingsFromJSON(factory.SettingsJSON{})); err != nil {
		return err
	}
	return h.Store.SaveRateSchedule(ctx, engine.RateSchedule{
		ID:          "rates-standard",
		ValidFrom:   time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC),
		Rates:       engine.DefaultCommissionRates(),
		Description: "Standard partner commission rates",
	})
}

func (h *Handler) loadDemoPortfolioScenario(ctx context.Context) error {
	if err := h.saveDefaultRules(ctx); err != nil {
		return err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	monthsAgo := func(n int) time.Time { return engine.AddMonths(today, -n) }

	for _, c := range demoCustomers {
		if err := h.Store.SaveCustomer(ctx, c); err != nil {
			return err
		}
	}

	endedLastYear := monthsAgo(8)

	// The first customer carries the bulk of the portfolio; the last is
	// the Existenzgruender with a three-month-old founder contract.
	contracts := []engine.Contract{
		// Mustermann GmbH: five contracts, one already completed
		{ID: "ct-demo-001", CustomerID: "cust-demo-001", SoftwareRentalAmount: engine.NewMoney(500), StartDate: monthsAgo(58), NumberOfSeats: 10, Notes: "Office-Miete Premium"},
		{ID: "ct-demo-002", CustomerID: "cust-demo-001", SoftwareCareAmount: engine.NewMoney(350), StartDate: monthsAgo(58), NumberOfSeats: 10, Notes: "Software-Pflege Enterprise"},
		{ID: "ct-demo-003", CustomerID: "cust-demo-001", AppsAmount: engine.NewMoney(80), StartDate: monthsAgo(40), NumberOfSeats: 10, Notes: "Mobile App Lizenz"},
		{ID: "ct-demo-004", CustomerID: "cust-demo-001", CloudAmount: engine.NewMoney(120), StartDate: monthsAgo(24), NumberOfSeats: 10, Notes: "Cloud Hosting"},
		{ID: "ct-demo-005", CustomerID: "cust-demo-001", PurchaseAmount: engine.NewMoney(150), StartDate: monthsAgo(58), EndDate: &endedLastYear, NumberOfSeats: 10, Notes: "Kauf Bestandsvertrag (beendet)"},

		// Normal customers: one to three contracts each
		{ID: "ct-demo-006", CustomerID: "cust-demo-002", SoftwareRentalAmount: engine.NewMoney(250), StartDate: monthsAgo(36), NumberOfSeats: 5, Notes: "Office-Miete Standard"},
		{ID: "ct-demo-007", CustomerID: "cust-demo-002", SoftwareCareAmount: engine.NewMoney(180), StartDate: monthsAgo(30), NumberOfSeats: 5},
		{ID: "ct-demo-008", CustomerID: "cust-demo-003", SoftwareRentalAmount: engine.NewMoney(100), StartDate: monthsAgo(48), NumberOfSeats: 2, Notes: "Office-Miete Basic"},
		{ID: "ct-demo-009", CustomerID: "cust-demo-004", SoftwareCareAmount: engine.NewMoney(220), StartDate: monthsAgo(20), NumberOfSeats: 3},
		{ID: "ct-demo-010", CustomerID: "cust-demo-005", SoftwareRentalAmount: engine.NewMoney(500), SoftwareCareAmount: engine.NewMoney(400), StartDate: monthsAgo(54), NumberOfSeats: 8, Notes: "Kombivertrag Entwicklung"},
		{ID: "ct-demo-011", CustomerID: "cust-demo-005", AppsAmount: engine.NewMoney(60), StartDate: monthsAgo(12), NumberOfSeats: 8},

		// Swiss site: amounts already converted from CHF at intake
		{ID: "ct-demo-012", CustomerID: "cust-demo-006", SoftwareRentalAmount: engine.NewMoney(237.50), StartDate: monthsAgo(26), NumberOfSeats: 4, Notes: "Eingereicht in CHF, gespeichert in EUR"},

		{ID: "ct-demo-013", CustomerID: "cust-demo-007", SoftwareCareAmount: engine.NewMoney(310), StartDate: monthsAgo(44), NumberOfSeats: 6},
		{ID: "ct-demo-014", CustomerID: "cust-demo-008", SoftwareRentalAmount: engine.NewMoney(100), AppsAmount: engine.NewMoney(25), StartDate: monthsAgo(16), NumberOfSeats: 2},
		{ID: "ct-demo-015", CustomerID: "cust-demo-009", SoftwareRentalAmount: engine.NewMoney(500), CloudAmount: engine.NewMoney(200), StartDate: monthsAgo(60), NumberOfSeats: 12, Notes: "Hauptsitz Rahmenvertrag"},
		{ID: "ct-demo-016", CustomerID: "cust-demo-009", PurchaseAmount: engine.NewMoney(90), StartDate: monthsAgo(60), EndDate: &endedLastYear, NumberOfSeats: 12, Notes: "Altvertrag (beendet)"},

		// Existenzgruender: founder discount, three months in
		{ID: "ct-demo-017", CustomerID: "cust-demo-010", SoftwareRentalAmount: engine.NewMoney(100), StartDate: monthsAgo(3), IsFounderDiscount: true, NumberOfSeats: 2, Notes: "Existenzgründer-Konditionen"},
	}

	for _, c := range contracts {
		if c.NumberOfSeats == 0 {
			c.NumberOfSeats = 1
		}
		if err := h.Store.SaveContract(ctx, c); err != nil {
			return err
		}
	}

	// A past increase most of the portfolio has already absorbed
	return h.Store.SavePriceIncrease(ctx, engine.PriceIncrease{
		ID:           "pi-demo-2023",
		ValidFrom:    time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC),
		LockInMonths: 24,
		Increases: map[engine.Stream]decimal.Decimal{
			engine.StreamSoftwareRental: decimal.NewFromInt(5),
			engine.StreamSoftwareCare:   decimal.NewFromInt(5),
		},
		Description: "Preisanpassung April 2023",
	})
}

func (h *Handler) loadFounderScenario(ctx context.Context) error {
	if err := h.saveDefaultRules(ctx); err != nil {
		return err
	}

	founder := demoCustomers[len(demoCustomers)-1]
	if err := h.Store.SaveCustomer(ctx, founder); err != nil {
		return err
	}

	start := engine.AddMonths(time.Now().UTC().Truncate(24*time.Hour), -3)
	return h.Store.SaveContract(ctx, engine.Contract{
		ID:                   "ct-founder-001",
		CustomerID:           founder.ID,
		SoftwareRentalAmount: engine.NewMoney(100),
		AppsAmount:           engine.NewMoney(40),
		StartDate:            start,
		IsFounderDiscount:    true,
		NumberOfSeats:        2,
		Notes:                "Existenzgründer-Konditionen, Provision ruht im ersten Jahr",
	})
}

func (h *Handler) loadPriceIncreaseScenario(ctx context.Context) error {
	if err := h.saveDefaultRules(ctx); err != nil {
		return err
	}

	customers := demoCustomers[:3]
	for _, c := range customers {
		if err := h.Store.SaveCustomer(ctx, c); err != nil {
			return err
		}
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	contracts := []engine.Contract{
		// Long-standing customer: lock-in already served, increase applies
		{ID: "ct-pi-001", CustomerID: "cust-demo-001", SoftwareRentalAmount: engine.NewMoney(500), StartDate: engine.AddMonths(today, -60), NumberOfSeats: 10},
		// Recent customer: still inside the lock-in window, grandfathered
		{ID: "ct-pi-002", CustomerID: "cust-demo-002", SoftwareRentalAmount: engine.NewMoney(250), StartDate: engine.AddMonths(today, -6), NumberOfSeats: 5},
		// Long-standing customer that negotiated an exclusion
		{ID: "ct-pi-003", CustomerID: "cust-demo-003", SoftwareRentalAmount: engine.NewMoney(100), StartDate: engine.AddMonths(today, -48), NumberOfSeats: 2,
			ExcludedPriceIncreaseIDs: []string{"pi-rollout"}, Notes: "Preisgarantie vereinbart"},
	}
	for _, c := range contracts {
		if err := h.Store.SaveContract(ctx, c); err != nil {
			return err
		}
	}

	return h.Store.SavePriceIncrease(ctx, engine.PriceIncrease{
		ID:           "pi-rollout",
		ValidFrom:    engine.StartOfMonth(engine.AddMonths(today, -1)),
		LockInMonths: 24,
		Increases: map[engine.Stream]decimal.Decimal{
			engine.StreamSoftwareRental: decimal.NewFromInt(8),
		},
		Description: "Aktuelle Preisanpassung",
	})
}
