/*
resolver.go - Effective-dated rule resolution

PURPOSE:

	Rate cards and price increases are revisioned over time: each revision
	carries a valid_from date. This file answers "which rule set is in
	force on date X?" without any process-wide mutable cache - rule sets
	are supplied by the caller per invocation.

RESOLUTION RULES:
 1. The in-force rule is the one with the most recent valid_from <= X.
 2. If every rule is in the future, the OLDEST rule is used as a floor,
    so the system never operates with zero configuration.
 3. An empty rule set falls back to a hard-coded default, documented
    per entity type (see DefaultCommissionRates).

SEE ALSO:
  - commission.go: Resolves the in-force rate schedule per computation
  - types.go: PriceIncrease and RateSchedule entities
*/
package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Effective is implemented by every effective-dated rule entity.
type Effective interface {
	EffectiveFrom() time.Time
}

// InForce returns the rule in force at asOf: the most recent rule whose
// EffectiveFrom is not after asOf. When all rules are in the future the
// oldest rule is returned as a floor. The second return is false only
// for an empty rule set.
func InForce[T Effective](rules []T, asOf time.Time) (T, bool) {
	var zero T
	if len(rules) == 0 {
		return zero, false
	}

	sorted := make([]T, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom().After(sorted[j].EffectiveFrom())
	})

	for _, r := range sorted {
		if !r.EffectiveFrom().After(asOf) {
			return r, true
		}
	}

	// All rules are future-dated: the oldest one is the floor.
	return sorted[len(sorted)-1], true
}

// DefaultCommissionRates is the hard-coded fallback used when no rate
// schedule exists at all. Values mirror the initial rate card the
// system shipped with.
func DefaultCommissionRates() map[Stream]decimal.Decimal {
	return map[Stream]decimal.Decimal{
		StreamSoftwareRental: decimal.NewFromInt(20),
		StreamSoftwareCare:   decimal.NewFromInt(20),
		StreamApps:           decimal.NewFromInt(20),
		StreamPurchase:       decimal.NewFromInt(10),
		StreamCloud:          decimal.NewFromInt(10),
	}
}

// RatesInForce resolves the commission rates applicable at asOf,
// falling back to DefaultCommissionRates for an empty schedule list.
func RatesInForce(schedules []RateSchedule, asOf time.Time) map[Stream]decimal.Decimal {
	sched, ok := InForce(schedules, asOf)
	if !ok {
		return DefaultCommissionRates()
	}
	return sched.Rates
}
