package engine

import "time"

// =============================================================================
// PER-CONTRACT METRICS - The engine's composite output for one contract
// =============================================================================

// ContractMetrics bundles every derived number for a single contract at
// a point in time. Nothing here is stored; callers recompute on demand.
type ContractMetrics struct {
	ContractID        string
	Status            Status
	CurrentPrice      Money
	MonthsRunning     int
	IsInFounderPeriod bool
	CurrentCommission Money
	EarnedToDate      Money
	ExitPayout        Money
}

// ComputeContractMetrics evaluates all calculators for one contract.
// referenceDate is the customer's grandfathering clock (zero = contract
// start date).
func ComputeContractMetrics(c Contract, s Settings, increases []PriceIncrease, schedules []RateSchedule, asOf, referenceDate time.Time) ContractMetrics {
	status := ResolveStatus(c, s.FounderDelayMonths, asOf)

	return ContractMetrics{
		ContractID:        c.ID,
		Status:            status.Status,
		CurrentPrice:      CurrentPrice(c, increases, asOf, referenceDate).Round2(),
		MonthsRunning:     MonthsBetween(c.StartDate, asOf),
		IsInFounderPeriod: status.Status == StatusFounder,
		CurrentCommission: CurrentCommission(c, s, increases, schedules, asOf, referenceDate).Round2(),
		EarnedToDate:      EarnedToDate(c, s, increases, schedules, asOf, referenceDate).Round2(),
		ExitPayout:        ExitPayout(c, s, increases, schedules, asOf, referenceDate).Round2(),
	}
}
