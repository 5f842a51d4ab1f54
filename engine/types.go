/*
Package engine provides the core contract economics calculation engine.

PURPOSE:

	This package contains the pure types and algorithms for contract
	economics: temporal rule resolution, the contract status state machine,
	price projection with grandfathering, per-stream commission, and the
	hypothetical exit payout. Everything in this package is a pure function
	over immutable snapshots - no I/O, no shared mutable state, safe to
	call concurrently on the same rule and settings values.

KEY CONCEPTS IN THIS FILE (types.go):
  - Stream: Fixed enum of the 5 revenue streams of a contract
  - Money: A currency amount backed by decimal.Decimal
  - Contract/Customer: The sellable agreement and its owner
  - PriceIncrease/RateSchedule: Effective-dated rule entities
  - Settings: The engine's externally-loaded configuration

DESIGN PRINCIPLES:
 1. Purity: Same inputs, same outputs. Status is derived, never stored.
 2. Precision: Uses decimal.Decimal to avoid floating-point errors.
 3. Closed stream set: Every per-stream iteration is exhaustive over the
    5 canonical streams; alternate-case keys are normalized at parse
    time, unknown keys never reach the engine.
 4. Non-negativity: Computed money and durations are clamped to >= 0.

USAGE:

	price := engine.CurrentPrice(contract, increases, asOf, refDate)
	commission := engine.CurrentCommission(contract, settings, increases,
	    schedules, asOf, refDate)

SEE ALSO:
  - resolver.go: Effective-dated rule resolution
  - status.go: Contract status state machine
  - price.go, commission.go, exit.go: The three calculators
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount in the canonical currency (EUR)
// =============================================================================

// Money is a monetary amount. The engine is currency-blind: the intake
// layer converts secondary-currency amounts once, at contract creation,
// and the engine only ever sees canonical values.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(o Money) Money        { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money        { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) MulInt(n int) Money       { return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (m Money) DivInt(n int) Money       { return Money{Value: m.Value.Div(decimal.NewFromInt(int64(n)))} }
func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) Equal(o Money) bool       { return m.Value.Equal(o.Value) }
func (m Money) Round2() Money            { return Money{Value: m.Value.Round(2)} }
func (m Money) Float64() float64         { f, _ := m.Value.Float64(); return f }

// ApplyPercent returns m * (1 + pct/100). Used for price increases.
func (m Money) ApplyPercent(pct decimal.Decimal) Money {
	factor := decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100)))
	return Money{Value: m.Value.Mul(factor)}
}

// Percent returns m * pct/100. Used for commission rates and tax.
func (m Money) Percent(pct decimal.Decimal) Money {
	return Money{Value: m.Value.Mul(pct).Div(decimal.NewFromInt(100))}
}

// ClampZero absorbs negative intermediate results. The engine never
// returns negative money.
func (m Money) ClampZero() Money {
	if m.Value.IsNegative() {
		return ZeroMoney()
	}
	return m
}

// =============================================================================
// REVENUE STREAMS - The 5 independently priced components of a contract
// =============================================================================

// Stream identifies one of the five revenue streams. The set is closed:
// rule maps and rate maps are keyed by Stream, and every function that
// iterates streams matches exhaustively over Streams().
type Stream string

const (
	StreamSoftwareRental Stream = "software_rental"
	StreamSoftwareCare   Stream = "software_care"
	StreamApps           Stream = "apps"
	StreamPurchase       Stream = "purchase"
	StreamCloud          Stream = "cloud"
)

// Streams returns the canonical stream set in a stable order.
func Streams() [5]Stream {
	return [5]Stream{
		StreamSoftwareRental,
		StreamSoftwareCare,
		StreamApps,
		StreamPurchase,
		StreamCloud,
	}
}

// streamAliases maps the spellings seen in stored rule documents and
// API payloads to canonical streams. Casing conventions differ between
// the persistence layer (snake_case) and older client payloads
// (camelCase); both resolve to the same stream.
var streamAliases = map[string]Stream{
	"software_rental": StreamSoftwareRental,
	"softwareRental":  StreamSoftwareRental,
	"SoftwareRental":  StreamSoftwareRental,
	"software_care":   StreamSoftwareCare,
	"softwareCare":    StreamSoftwareCare,
	"SoftwareCare":    StreamSoftwareCare,
	"apps":            StreamApps,
	"Apps":            StreamApps,
	"purchase":        StreamPurchase,
	"Purchase":        StreamPurchase,
	"cloud":           StreamCloud,
	"Cloud":           StreamCloud,
}

// ParseStream resolves a stream key to its canonical stream. The second
// return is false for unrecognized keys; callers at the parsing boundary
// drop those entries, so an unknown key is always a no-op contribution.
func ParseStream(key string) (Stream, bool) {
	s, ok := streamAliases[key]
	return s, ok
}

// =============================================================================
// CONTRACT - One sellable agreement
// =============================================================================

// Contract is one agreement with up to five concurrent revenue streams.
// Status is never stored on the contract; it is derived by ResolveStatus
// for a given reference date.
type Contract struct {
	ID         string
	CustomerID string

	// Monthly amounts per stream, canonical currency, always >= 0.
	SoftwareRentalAmount Money
	SoftwareCareAmount   Money
	AppsAmount           Money
	PurchaseAmount       Money
	CloudAmount          Money

	// StartDate is the rental start and the default grandfathering
	// reference when the customer has no earlier contract.
	StartDate time.Time
	EndDate   *time.Time

	// IsFounderDiscount enables the temporary zero-commission grace
	// period (Settings.FounderDelayMonths long).
	IsFounderDiscount bool

	// NumberOfSeats drives the exit payout tier lookup.
	NumberOfSeats int

	// Negotiated per-contract exceptions to grandfathering. Exclusions
	// always win over inclusions.
	ExcludedPriceIncreaseIDs      []string
	IncludedEarlyPriceIncreaseIDs []string

	Notes string
}

// AmountFor returns the base monthly amount of a stream.
func (c Contract) AmountFor(s Stream) Money {
	switch s {
	case StreamSoftwareRental:
		return c.SoftwareRentalAmount
	case StreamSoftwareCare:
		return c.SoftwareCareAmount
	case StreamApps:
		return c.AppsAmount
	case StreamPurchase:
		return c.PurchaseAmount
	case StreamCloud:
		return c.CloudAmount
	default:
		return ZeroMoney()
	}
}

// BaseTotal is the sum of the five stream amounts without any increase.
func (c Contract) BaseTotal() Money {
	total := ZeroMoney()
	for _, s := range Streams() {
		total = total.Add(c.AmountFor(s))
	}
	return total
}

func (c Contract) excludes(ruleID string) bool {
	for _, id := range c.ExcludedPriceIncreaseIDs {
		if id == ruleID {
			return true
		}
	}
	return false
}

func (c Contract) forcesEarly(ruleID string) bool {
	for _, id := range c.IncludedEarlyPriceIncreaseIDs {
		if id == ruleID {
			return true
		}
	}
	return false
}

// =============================================================================
// CUSTOMER - Owns contracts; its first contract anchors grandfathering
// =============================================================================

type Customer struct {
	ID             string
	Name           string
	Name2          string
	City           string
	PostalCode     string
	CustomerNumber string
	Country        string
}

// ReferenceDate returns the grandfathering clock for a customer: the
// start date of its earliest contract. A later contract inherits the
// lock-in clock of the customer's first agreement. Zero time when the
// customer has no contracts.
func ReferenceDate(contracts []Contract) time.Time {
	var earliest time.Time
	for _, c := range contracts {
		if earliest.IsZero() || c.StartDate.Before(earliest) {
			earliest = c.StartDate
		}
	}
	return earliest
}

// =============================================================================
// EFFECTIVE-DATED RULES
// =============================================================================

// PriceIncrease is an effective-dated price increase rule. Multiple
// rules accumulate multiplicatively when each qualifies on its own.
type PriceIncrease struct {
	ID           string
	ValidFrom    time.Time
	LockInMonths int

	// Percentage increase per stream. Streams absent from the map are
	// unchanged by this rule.
	Increases map[Stream]decimal.Decimal

	Description string
}

func (p PriceIncrease) EffectiveFrom() time.Time { return p.ValidFrom }

// RateSchedule is an effective-dated commission rate card. Exactly one
// schedule is in force for any date (see InForce).
type RateSchedule struct {
	ID        string
	ValidFrom time.Time

	// Commission percentage per stream.
	Rates map[Stream]decimal.Decimal

	Description string
}

func (r RateSchedule) EffectiveFrom() time.Time { return r.ValidFrom }

// =============================================================================
// SETTINGS - Externally-loaded engine configuration
// =============================================================================

// ExitTier maps an inclusive seat-count range to the months a contract
// must have run before no exit payout is owed. First match wins.
type ExitTier struct {
	MinSeats int
	MaxSeats int
	Months   int
}

// ExitPayoutRule controls whether a stream counts toward the
// exit-eligible commission. AdditionalMonths is negotiated configuration
// carried alongside the flag; it does not enter the payout formula.
type ExitPayoutRule struct {
	Enabled          bool
	AdditionalMonths int
}

// Settings is the singleton configuration record. The engine takes it by
// value; loading it (and failing hard when it is missing) is the
// caller's responsibility.
type Settings struct {
	FounderDelayMonths int

	// Commission tail per stream: months after EndDate during which the
	// stream still earns commission at its normal rate.
	PostContractMonths map[Stream]int

	MinContractMonthsForPayout int
	ExitPayoutTiers            []ExitTier
	ExitPayoutByStream         map[Stream]ExitPayoutRule

	// Personal tax rate in percent, e.g. 42 for 42%.
	PersonalTaxRate decimal.Decimal
}

// PostContractMonthsFor returns the commission tail for a stream,
// 0 when unconfigured.
func (s Settings) PostContractMonthsFor(stream Stream) int {
	return s.PostContractMonths[stream]
}

// ExitEligible reports whether a stream counts toward exit payout.
func (s Settings) ExitEligible(stream Stream) bool {
	return s.ExitPayoutByStream[stream].Enabled
}
