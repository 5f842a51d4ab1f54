package engine_test

import (
	"testing"
	"time"

	"github.com/provisio/contract-engine/engine"
	"github.com/shopspring/decimal"
)

func schedule(id string, validFrom time.Time, rentalRate int) engine.RateSchedule {
	return engine.RateSchedule{
		ID:        id,
		ValidFrom: validFrom,
		Rates: map[engine.Stream]decimal.Decimal{
			engine.StreamSoftwareRental: decimal.NewFromInt(int64(rentalRate)),
		},
	}
}

func TestInForce_MostRecentPastRuleWins(t *testing.T) {
	// GIVEN: Three rate card revisions, two in the past
	// WHEN: Resolving for a date between the second and third
	// THEN: The second (most recent past) revision is in force
	schedules := []engine.RateSchedule{
		schedule("v1", engine.Date(2020, time.January, 1), 15),
		schedule("v2", engine.Date(2023, time.June, 1), 20),
		schedule("v3", engine.Date(2026, time.January, 1), 25),
	}

	got, ok := engine.InForce(schedules, engine.Date(2024, time.March, 1))
	if !ok {
		t.Fatal("expected a rule to resolve")
	}
	if got.ID != "v2" {
		t.Errorf("expected v2 in force, got %s", got.ID)
	}
}

func TestInForce_ExactValidFromDateApplies(t *testing.T) {
	schedules := []engine.RateSchedule{
		schedule("v1", engine.Date(2023, time.June, 1), 20),
	}

	got, ok := engine.InForce(schedules, engine.Date(2023, time.June, 1))
	if !ok || got.ID != "v1" {
		t.Errorf("rule should be in force on its own valid_from date")
	}
}

func TestInForce_AllFutureFallsBackToOldest(t *testing.T) {
	// GIVEN: Only future-dated revisions
	// THEN: The oldest one is used as a floor so the system never runs
	// with zero configuration
	schedules := []engine.RateSchedule{
		schedule("later", engine.Date(2030, time.January, 1), 25),
		schedule("sooner", engine.Date(2028, time.January, 1), 22),
	}

	got, ok := engine.InForce(schedules, engine.Date(2025, time.January, 1))
	if !ok {
		t.Fatal("expected fallback rule")
	}
	if got.ID != "sooner" {
		t.Errorf("expected oldest future rule, got %s", got.ID)
	}
}

func TestInForce_EmptyRuleSet(t *testing.T) {
	_, ok := engine.InForce([]engine.RateSchedule{}, engine.Date(2025, time.January, 1))
	if ok {
		t.Error("empty rule set must not resolve")
	}
}

func TestInForce_DoesNotMutateInput(t *testing.T) {
	schedules := []engine.RateSchedule{
		schedule("b", engine.Date(2024, time.January, 1), 20),
		schedule("a", engine.Date(2020, time.January, 1), 15),
	}

	engine.InForce(schedules, engine.Date(2025, time.January, 1))

	if schedules[0].ID != "b" || schedules[1].ID != "a" {
		t.Error("caller's slice order must not change")
	}
}

func TestRatesInForce_EmptyUsesDefaults(t *testing.T) {
	rates := engine.RatesInForce(nil, engine.Date(2025, time.January, 1))

	if !rates[engine.StreamSoftwareRental].Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected default rental rate 20, got %v", rates[engine.StreamSoftwareRental])
	}
	if !rates[engine.StreamCloud].Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected default cloud rate 10, got %v", rates[engine.StreamCloud])
	}
}

func TestParseStream_AliasNormalization(t *testing.T) {
	cases := map[string]engine.Stream{
		"software_rental": engine.StreamSoftwareRental,
		"softwareRental":  engine.StreamSoftwareRental,
		"SoftwareCare":    engine.StreamSoftwareCare,
		"apps":            engine.StreamApps,
		"Purchase":        engine.StreamPurchase,
		"cloud":           engine.StreamCloud,
	}

	for key, want := range cases {
		got, ok := engine.ParseStream(key)
		if !ok || got != want {
			t.Errorf("ParseStream(%q) = (%v, %v), want %v", key, got, ok, want)
		}
	}

	if _, ok := engine.ParseStream("hosting"); ok {
		t.Error("unknown keys must not resolve to a stream")
	}
}
