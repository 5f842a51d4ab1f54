/*
exit.go - Hypothetical exit payout

PURPOSE:

	Computes the payout owed if the relationship ended today: the unearned
	remainder of a minimum contract term, valued at the contract's current
	eligible monthly commission.

TIER LOOKUP:

	The required term depends on the contract's seat count. Tiers are
	inclusive [min_seats, max_seats] ranges, first match wins; when no
	tier matches, Settings.MinContractMonthsForPayout is the fallback.

ELIGIBLE COMMISSION:

	The monthly commission used here is the ordinary per-stream
	computation restricted to streams whose exit payout is enabled. Exit
	payouts are a negotiated retention incentive that may deliberately
	exclude low-margin streams (e.g. cloud) even though those streams
	count toward ordinary monthly commission.
*/
package engine

import "time"

// ExitPayout returns the payout owed if the contract ended at asOf.
// Zero for completed contracts and for contracts that have served their
// required term.
func ExitPayout(c Contract, s Settings, increases []PriceIncrease, schedules []RateSchedule, asOf, referenceDate time.Time) Money {
	status := ResolveStatus(c, s.FounderDelayMonths, asOf)
	if status.Status == StatusCompleted {
		return ZeroMoney()
	}

	monthsRunning := MonthsBetween(c.StartDate, asOf)
	required := RequiredMonths(s, c.NumberOfSeats)
	if monthsRunning >= required {
		return ZeroMoney()
	}
	monthsRemaining := required - monthsRunning

	eligibleCommission := streamCommission(c, s, increases, schedules, asOf, referenceDate, s.ExitEligible)

	return eligibleCommission.MulInt(monthsRemaining).ClampZero()
}

// RequiredMonths resolves the seat-count tier to the months a contract
// must run before no exit payout is owed.
func RequiredMonths(s Settings, seats int) int {
	for _, tier := range s.ExitPayoutTiers {
		if seats >= tier.MinSeats && seats <= tier.MaxSeats {
			return tier.Months
		}
	}
	return s.MinContractMonthsForPayout
}
