/*
status.go - Contract status state machine

PURPOSE:

	Derives a contract's effective lifecycle state from its dates and the
	founder flag. Status is never stored: it is re-evaluated fresh for
	every call, so repeated calls with the same inputs are idempotent.

STATES AND PRIORITY:

 1. completed - end date set and passed (terminal)

 2. inactive  - future-dated contract, not yet begun

 3. founder   - founder-flagged contract inside the grace window

 4. active    - everything else

    The rules are evaluated in exactly this order; there are no other
    transitions.
*/
package engine

import "time"

// Status is a contract's derived lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusCompleted Status = "completed"
	StatusFounder   Status = "founder"
)

// StatusResult carries the resolved status plus, for the two waiting
// states, the date from which the contract will be active.
type StatusResult struct {
	Status Status

	// ActiveFrom is set for inactive (contract start) and founder
	// (end of the grace window) contracts; zero otherwise.
	ActiveFrom time.Time
}

// ResolveStatus derives the contract status at the given date.
func ResolveStatus(c Contract, founderDelayMonths int, today time.Time) StatusResult {
	if c.EndDate != nil && today.After(*c.EndDate) {
		return StatusResult{Status: StatusCompleted}
	}

	if today.Before(c.StartDate) {
		return StatusResult{Status: StatusInactive, ActiveFrom: c.StartDate}
	}

	if c.IsFounderDiscount {
		founderEnd := AddMonths(c.StartDate, founderDelayMonths)
		if today.Before(founderEnd) {
			return StatusResult{Status: StatusFounder, ActiveFrom: founderEnd}
		}
	}

	return StatusResult{Status: StatusActive}
}
