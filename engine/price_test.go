package engine_test

import (
	"testing"
	"time"

	"github.com/provisio/contract-engine/engine"
	"github.com/shopspring/decimal"
)

// =============================================================================
// TEST HELPERS
// =============================================================================
// Shared across the engine test files; schedule() lives in resolver_test.go.

func pct(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func rentalContract(start time.Time, amount float64) engine.Contract {
	return engine.Contract{
		ID:                   "c-1",
		CustomerID:           "cust-1",
		SoftwareRentalAmount: engine.NewMoney(amount),
		StartDate:            start,
	}
}

func increase(id string, validFrom time.Time, lockIn int, increases map[engine.Stream]decimal.Decimal) engine.PriceIncrease {
	return engine.PriceIncrease{
		ID:           id,
		ValidFrom:    validFrom,
		LockInMonths: lockIn,
		Increases:    increases,
	}
}

func assertMoney(t *testing.T, got engine.Money, want float64) {
	t.Helper()
	if !got.Round2().Equal(engine.NewMoney(want).Round2()) {
		t.Errorf("got %v, want %v", got.Value, want)
	}
}

// =============================================================================
// PRICE PROJECTION TESTS
// =============================================================================

func TestCurrentPrice_NoIncreasesIsBaseSum(t *testing.T) {
	c := engine.Contract{
		SoftwareRentalAmount: engine.NewMoney(1000),
		SoftwareCareAmount:   engine.NewMoney(200),
		AppsAmount:           engine.NewMoney(50),
		PurchaseAmount:       engine.NewMoney(25),
		CloudAmount:          engine.NewMoney(125),
		StartDate:            engine.Date(2020, time.January, 1),
	}

	got := engine.CurrentPrice(c, nil, engine.Date(2025, time.January, 1), time.Time{})

	assertMoney(t, got, 1400)
}

func TestCurrentPrice_AppliesIncreaseAfterLockIn(t *testing.T) {
	// GIVEN: A 24 month lock-in and a customer with 30 months of tenure
	// when the rule took effect
	c := rentalContract(engine.Date(2021, time.January, 1), 1000)
	rules := []engine.PriceIncrease{
		increase("pi-1", engine.Date(2023, time.July, 1), 24,
			map[engine.Stream]decimal.Decimal{engine.StreamSoftwareRental: pct(5)}),
	}

	got := engine.CurrentPrice(c, rules, engine.Date(2024, time.January, 1), time.Time{})

	assertMoney(t, got, 1050)
}

func TestCurrentPrice_GrandfatheringBlocksYoungCustomer(t *testing.T) {
	// GIVEN: lock_in_months = 24 but only 10 months elapsed between the
	// customer reference date and the rule's valid_from
	// THEN: The increase must not alter the price, for any as_of
	c := rentalContract(engine.Date(2023, time.January, 1), 1000)
	rules := []engine.PriceIncrease{
		increase("pi-1", engine.Date(2023, time.November, 1), 24,
			map[engine.Stream]decimal.Decimal{engine.StreamSoftwareRental: pct(5)}),
	}

	for _, asOf := range []time.Time{
		engine.Date(2023, time.December, 1),
		engine.Date(2025, time.June, 1),
		engine.Date(2030, time.January, 1),
	} {
		got := engine.CurrentPrice(c, rules, asOf, time.Time{})
		assertMoney(t, got, 1000)
	}
}

func TestCurrentPrice_CustomerReferenceDateUnlocksIncrease(t *testing.T) {
	// GIVEN: A young contract owned by a long-standing customer
	// THEN: Grandfathering is measured against the customer's tenure,
	// so the increase applies to the new contract too
	c := rentalContract(engine.Date(2023, time.June, 1), 1000)
	customerSince := engine.Date(2019, time.January, 1)
	rules := []engine.PriceIncrease{
		increase("pi-1", engine.Date(2023, time.July, 1), 24,
			map[engine.Stream]decimal.Decimal{engine.StreamSoftwareRental: pct(10)}),
	}

	got := engine.CurrentPrice(c, rules, engine.Date(2024, time.January, 1), customerSince)

	assertMoney(t, got, 1100)
}

func TestCurrentPrice_ExcludedRuleNeverApplies(t *testing.T) {
	c := rentalContract(engine.Date(2018, time.January, 1), 1000)
	c.ExcludedPriceIncreaseIDs = []string{"pi-1"}
	rules := []engine.PriceIncrease{
		increase("pi-1", engine.Date(2022, time.January, 1), 12,
			map[engine.Stream]decimal.Decimal{engine.StreamSoftwareRental: pct(5)}),
	}

	got := engine.CurrentPrice(c, rules, engine.Date(2025, time.January, 1), time.Time{})

	assertMoney(t, got, 1000)
}

func TestCurrentPrice_ForcedInclusionBypassesLockIn(t *testing.T) {
	// GIVEN: A rule the contract would normally be protected from
	// WHEN: The rule id is force-included
	// THEN: It applies regardless of the lock-in clock
	c := rentalContract(engine.Date(2023, time.January, 1), 1000)
	c.IncludedEarlyPriceIncreaseIDs = []string{"pi-1"}
	rules := []engine.PriceIncrease{
		increase("pi-1", engine.Date(2023, time.June, 1), 48,
			map[engine.Stream]decimal.Decimal{engine.StreamSoftwareRental: pct(5)}),
	}

	got := engine.CurrentPrice(c, rules, engine.Date(2023, time.July, 1), time.Time{})

	assertMoney(t, got, 1050)
}

func TestCurrentPrice_ExclusionWinsOverInclusion(t *testing.T) {
	c := rentalContract(engine.Date(2020, time.January, 1), 1000)
	c.ExcludedPriceIncreaseIDs = []string{"pi-1"}
	c.IncludedEarlyPriceIncreaseIDs = []string{"pi-1"}
	rules := []engine.PriceIncrease{
		increase("pi-1", engine.Date(2023, time.January, 1), 0,
			map[engine.Stream]decimal.Decimal{engine.StreamSoftwareRental: pct(5)}),
	}

	got := engine.CurrentPrice(c, rules, engine.Date(2025, time.January, 1), time.Time{})

	assertMoney(t, got, 1000)
}

func TestCurrentPrice_RulePredatingContractSkipped(t *testing.T) {
	// A rule older than the contract never auto-applies; its increase is
	// already baked into the negotiated base amounts.
	c := rentalContract(engine.Date(2024, time.January, 1), 1000)
	rules := []engine.PriceIncrease{
		increase("pi-old", engine.Date(2020, time.January, 1), 0,
			map[engine.Stream]decimal.Decimal{engine.StreamSoftwareRental: pct(5)}),
	}

	got := engine.CurrentPrice(c, rules, engine.Date(2025, time.June, 1), engine.Date(2015, time.January, 1))

	assertMoney(t, got, 1000)
}

func TestCurrentPrice_RulePredatingContractForceIncluded(t *testing.T) {
	c := rentalContract(engine.Date(2024, time.January, 1), 1000)
	c.IncludedEarlyPriceIncreaseIDs = []string{"pi-old"}
	rules := []engine.PriceIncrease{
		increase("pi-old", engine.Date(2020, time.January, 1), 0,
			map[engine.Stream]decimal.Decimal{engine.StreamSoftwareRental: pct(5)}),
	}

	got := engine.CurrentPrice(c, rules, engine.Date(2025, time.June, 1), time.Time{})

	assertMoney(t, got, 1050)
}

func TestCurrentPrice_FutureRuleNotYetInEffect(t *testing.T) {
	c := rentalContract(engine.Date(2020, time.January, 1), 1000)
	rules := []engine.PriceIncrease{
		increase("pi-1", engine.Date(2026, time.January, 1), 0,
			map[engine.Stream]decimal.Decimal{engine.StreamSoftwareRental: pct(5)}),
	}

	got := engine.CurrentPrice(c, rules, engine.Date(2025, time.June, 1), time.Time{})

	assertMoney(t, got, 1000)
}

func TestCurrentPrice_MultipleIncreasesCompound(t *testing.T) {
	// GIVEN: Two qualifying increases of 10% and 5% on the same stream
	// THEN: They compound: 1000 * 1.10 * 1.05 = 1155, independent of
	// slice order
	c := rentalContract(engine.Date(2015, time.January, 1), 1000)
	a := increase("pi-a", engine.Date(2020, time.January, 1), 12,
		map[engine.Stream]decimal.Decimal{engine.StreamSoftwareRental: pct(10)})
	b := increase("pi-b", engine.Date(2022, time.January, 1), 12,
		map[engine.Stream]decimal.Decimal{engine.StreamSoftwareRental: pct(5)})

	forward := engine.CurrentPrice(c, []engine.PriceIncrease{a, b}, engine.Date(2025, time.January, 1), time.Time{})
	reversed := engine.CurrentPrice(c, []engine.PriceIncrease{b, a}, engine.Date(2025, time.January, 1), time.Time{})

	assertMoney(t, forward, 1155)
	if !forward.Equal(reversed) {
		t.Errorf("application order changed the result: %v vs %v", forward.Value, reversed.Value)
	}
}

func TestCurrentPrice_PerStreamPercentages(t *testing.T) {
	c := engine.Contract{
		SoftwareRentalAmount: engine.NewMoney(1000),
		SoftwareCareAmount:   engine.NewMoney(400),
		StartDate:            engine.Date(2015, time.January, 1),
	}
	rules := []engine.PriceIncrease{
		increase("pi-1", engine.Date(2020, time.January, 1), 12, map[engine.Stream]decimal.Decimal{
			engine.StreamSoftwareRental: pct(5),
			engine.StreamSoftwareCare:   pct(3),
		}),
	}

	got := engine.CurrentPrice(c, rules, engine.Date(2025, time.January, 1), time.Time{})

	// 1000*1.05 + 400*1.03 = 1050 + 412
	assertMoney(t, got, 1462)
}
