/*
commission.go - Monthly commission and cumulative earnings

PURPOSE:

	Computes the sales commission owed on a contract for a given month.
	Commission is computed per stream (projected amount x in-force rate),
	then summed - never from the aggregated price, because streams carry
	different rates.

STATUS GATING:

	Contracts that have not started (inactive) or sit in the founder grace
	window earn nothing. A contract past its end date is not cut off
	immediately: each stream keeps earning at its normal rate until that
	stream's post-contract tail expires. The tail changes whether a stream
	counts at all, never its rate. Once every tail has elapsed the
	commission is zero, which is how "completed earns nothing" eventually
	holds.

FAILURE SEMANTICS:

	Missing rate schedules fall back to resolver defaults; missing rules
	never error. A missing Settings record is the caller's fatal
	precondition - by the time Settings reaches this package it is a
	plain value.
*/
package engine

import "time"

// CurrentCommission returns the monthly commission for a contract at
// asOf. referenceDate is the customer's grandfathering clock (zero =
// contract start).
func CurrentCommission(c Contract, s Settings, increases []PriceIncrease, schedules []RateSchedule, asOf, referenceDate time.Time) Money {
	status := ResolveStatus(c, s.FounderDelayMonths, asOf)
	if status.Status == StatusInactive || status.Status == StatusFounder {
		return ZeroMoney()
	}

	return streamCommission(c, s, increases, schedules, asOf, referenceDate, nil)
}

// streamCommission sums amount x rate across streams, applying the
// post-contract tail. The eligible filter restricts the stream set; nil
// means all five streams count (the exit calculator passes the
// per-stream exit eligibility here).
func streamCommission(c Contract, s Settings, increases []PriceIncrease, schedules []RateSchedule, asOf, referenceDate time.Time, eligible func(Stream) bool) Money {
	amounts := ProjectedAmounts(c, increases, asOf, referenceDate)
	rates := RatesInForce(schedules, asOf)

	total := ZeroMoney()
	for _, stream := range Streams() {
		if eligible != nil && !eligible(stream) {
			continue
		}

		if c.EndDate != nil && asOf.After(*c.EndDate) {
			tail := s.PostContractMonthsFor(stream)
			if MonthsBetween(*c.EndDate, asOf) > tail {
				continue // tail expired, stream no longer counts
			}
		}

		rate, ok := rates[stream]
		if !ok {
			continue
		}
		total = total.Add(amounts[stream].Percent(rate))
	}

	return total.ClampZero()
}

// EarnedToDate sums the monthly commission from contract start through
// asOf, one whole calendar month at a time. Founder-phase months
// contribute zero via the status gate; price increases and rate card
// revisions take effect in the month they become applicable.
func EarnedToDate(c Contract, s Settings, increases []PriceIncrease, schedules []RateSchedule, asOf, referenceDate time.Time) Money {
	total := ZeroMoney()
	for current := c.StartDate; !current.After(asOf); current = AddMonths(current, 1) {
		total = total.Add(CurrentCommission(c, s, increases, schedules, current, referenceDate))
	}
	return total.ClampZero()
}
