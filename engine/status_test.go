package engine_test

import (
	"testing"
	"time"

	"github.com/provisio/contract-engine/engine"
)

func TestResolveStatus_Completed(t *testing.T) {
	// GIVEN: A contract whose end date has passed
	end := engine.Date(2024, time.December, 31)
	c := engine.Contract{
		StartDate: engine.Date(2020, time.January, 1),
		EndDate:   &end,
	}

	got := engine.ResolveStatus(c, 12, engine.Date(2025, time.March, 1))

	if got.Status != engine.StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
}

func TestResolveStatus_EndDateNotYetPassed(t *testing.T) {
	// The contract is still running on its end date itself.
	end := engine.Date(2025, time.June, 30)
	c := engine.Contract{
		StartDate: engine.Date(2020, time.January, 1),
		EndDate:   &end,
	}

	got := engine.ResolveStatus(c, 12, end)

	if got.Status != engine.StatusActive {
		t.Errorf("expected active on end date, got %s", got.Status)
	}
}

func TestResolveStatus_FutureDatedContractIsInactive(t *testing.T) {
	c := engine.Contract{StartDate: engine.Date(2026, time.January, 1)}

	got := engine.ResolveStatus(c, 12, engine.Date(2025, time.June, 1))

	if got.Status != engine.StatusInactive {
		t.Errorf("expected inactive, got %s", got.Status)
	}
	if !got.ActiveFrom.Equal(c.StartDate) {
		t.Errorf("expected ActiveFrom = start date, got %v", got.ActiveFrom)
	}
}

func TestResolveStatus_FounderGraceWindow(t *testing.T) {
	// GIVEN: A founder contract, 6 months in, with a 12 month delay
	c := engine.Contract{
		StartDate:         engine.Date(2025, time.January, 1),
		IsFounderDiscount: true,
	}

	got := engine.ResolveStatus(c, 12, engine.Date(2025, time.July, 1))

	if got.Status != engine.StatusFounder {
		t.Errorf("expected founder, got %s", got.Status)
	}
	wantActive := engine.Date(2026, time.January, 1)
	if !got.ActiveFrom.Equal(wantActive) {
		t.Errorf("expected ActiveFrom %v, got %v", wantActive, got.ActiveFrom)
	}
}

func TestResolveStatus_FounderWindowElapsed(t *testing.T) {
	c := engine.Contract{
		StartDate:         engine.Date(2023, time.January, 1),
		IsFounderDiscount: true,
	}

	got := engine.ResolveStatus(c, 12, engine.Date(2025, time.July, 1))

	if got.Status != engine.StatusActive {
		t.Errorf("expected active after grace window, got %s", got.Status)
	}
}

func TestResolveStatus_CompletedBeatsFounder(t *testing.T) {
	// Priority order: a passed end date wins over the founder window.
	end := engine.Date(2025, time.March, 1)
	c := engine.Contract{
		StartDate:         engine.Date(2025, time.January, 1),
		EndDate:           &end,
		IsFounderDiscount: true,
	}

	got := engine.ResolveStatus(c, 12, engine.Date(2025, time.June, 1))

	if got.Status != engine.StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
}

func TestResolveStatus_Idempotent(t *testing.T) {
	c := engine.Contract{
		StartDate:         engine.Date(2025, time.January, 1),
		IsFounderDiscount: true,
	}
	today := engine.Date(2025, time.July, 1)

	first := engine.ResolveStatus(c, 12, today)
	second := engine.ResolveStatus(c, 12, today)

	if first != second {
		t.Errorf("repeated resolution differed: %+v vs %+v", first, second)
	}
}
