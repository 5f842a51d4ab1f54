/*
price.go - Current price projection with grandfathering

PURPOSE:

	Computes the current total monthly price of a contract by applying
	every eligible price increase per revenue stream. Eligibility combines
	four independent gates:

	1. Per-contract exclusion list (negotiated opt-out; always wins).
	2. Rules predating the contract never auto-apply; they can only be
	   force-included.
	3. A rule not yet in effect at the calculation date never applies.
	4. Grandfathering: the customer must have been a customer for at
	   least lock_in_months when the rule took effect - measured against
	   the CUSTOMER's reference date (earliest contract start), not the
	   individual contract. Force-included rules bypass this gate.

	Increases are multiplicative and commute, so application order is
	irrelevant.

GRANDFATHERING RATIONALE:

	A long-standing customer opening a new contract inherits the lock-in
	clock of its first agreement; the explicit include/exclude lists exist
	because negotiated exceptions do not follow the default rule.
*/
package engine

import "time"

// CurrentPrice returns the total monthly price of a contract at asOf,
// all eligible price increases applied. referenceDate is the customer's
// grandfathering clock; pass the zero time to fall back to the
// contract's own start date.
func CurrentPrice(c Contract, increases []PriceIncrease, asOf, referenceDate time.Time) Money {
	amounts := ProjectedAmounts(c, increases, asOf, referenceDate)
	total := ZeroMoney()
	for _, s := range Streams() {
		total = total.Add(amounts[s])
	}
	return total.ClampZero()
}

// ProjectedAmounts returns the per-stream amounts with all eligible
// increases applied. Commission is computed per stream, so the
// commission engine consumes this directly rather than the summed
// price.
func ProjectedAmounts(c Contract, increases []PriceIncrease, asOf, referenceDate time.Time) map[Stream]Money {
	amounts := make(map[Stream]Money, 5)
	for _, s := range Streams() {
		amounts[s] = c.AmountFor(s)
	}

	reference := referenceDate
	if reference.IsZero() {
		reference = c.StartDate
	}

	for _, rule := range increases {
		if c.excludes(rule.ID) {
			continue
		}
		forced := c.forcesEarly(rule.ID)

		// A rule older than the contract never auto-applies.
		if rule.ValidFrom.Before(c.StartDate) && !forced {
			continue
		}
		if rule.ValidFrom.After(asOf) {
			continue
		}

		monthsSinceReference := MonthsBetween(reference, rule.ValidFrom)
		if monthsSinceReference < rule.LockInMonths && !forced {
			continue
		}

		for _, s := range Streams() {
			pct, ok := rule.Increases[s]
			if !ok || pct.IsZero() {
				continue
			}
			amounts[s] = amounts[s].ApplyPercent(pct)
		}
	}

	return amounts
}
