/*
Package report aggregates per-contract engine results into customer and
population views.

PURPOSE:

	The engine computes one contract at a time; this package rolls those
	results up: per-customer metrics, the dashboard summary, and the
	month-by-month commission forecast. Like the engine it is pure - every
	function takes immutable snapshots and a reference date.

KEY CONCEPTS:
  - CustomerContracts: A customer together with all of their contracts.
    The grouping matters because grandfathering is anchored to the
    customer's earliest contract start, not to each contract's own.
  - Worker pool: Customer evaluations are independent, so population
    rollups fan out over a fixed-size pool and reduce the results.

SEE ALSO:
  - forecast.go: The month-by-month projection
  - engine: The per-contract calculators this package composes
*/
package report

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/provisio/contract-engine/engine"
)

// DefaultTopCustomers is how many customers the dashboard ranks by
// commission when the caller does not ask for a specific count.
const DefaultTopCustomers = 3

// poolSize bounds the number of goroutines evaluating customers
// concurrently during population rollups.
const poolSize = 4

// =============================================================================
// CUSTOMER METRICS - All derived numbers for one customer
// =============================================================================

// CustomerContracts is the unit of aggregation: one customer and every
// contract they hold.
type CustomerContracts struct {
	Customer  engine.Customer
	Contracts []engine.Contract
}

// ReferenceDate returns the customer's grandfathering clock: the start
// date of their earliest contract.
func (cc CustomerContracts) ReferenceDate() time.Time {
	return engine.ReferenceDate(cc.Contracts)
}

// CustomerMetrics is the rollup of one customer's contracts at a point
// in time. Rental and revenue totals count active contracts only;
// commission, earnings and exit payout include every contract so that
// post-contract tails and founder-phase history are not lost.
type CustomerMetrics struct {
	CustomerID             string
	TotalMonthlyRental     engine.Money
	TotalMonthlyRevenue    engine.Money
	TotalMonthlyCommission engine.Money
	TotalMonthlyNetIncome  engine.Money
	TotalEarned            engine.Money
	ExitPayout             engine.Money
	ActiveContracts        int
}

// ComputeCustomerMetrics evaluates every contract of one customer at
// asOf and sums the results.
func ComputeCustomerMetrics(cc CustomerContracts, s engine.Settings, increases []engine.PriceIncrease, schedules []engine.RateSchedule, asOf time.Time) CustomerMetrics {
	referenceDate := cc.ReferenceDate()

	m := CustomerMetrics{CustomerID: cc.Customer.ID}
	for _, c := range cc.Contracts {
		status := engine.ResolveStatus(c, s.FounderDelayMonths, asOf)
		if status.Status == engine.StatusActive {
			m.ActiveContracts++
			m.TotalMonthlyRental = m.TotalMonthlyRental.Add(c.BaseTotal())
			m.TotalMonthlyRevenue = m.TotalMonthlyRevenue.Add(
				engine.CurrentPrice(c, increases, asOf, referenceDate))
		}

		m.TotalMonthlyCommission = m.TotalMonthlyCommission.Add(
			engine.CurrentCommission(c, s, increases, schedules, asOf, referenceDate))
		m.TotalEarned = m.TotalEarned.Add(
			engine.EarnedToDate(c, s, increases, schedules, asOf, referenceDate))
		m.ExitPayout = m.ExitPayout.Add(
			engine.ExitPayout(c, s, increases, schedules, asOf, referenceDate))
	}

	m.TotalMonthlyRental = m.TotalMonthlyRental.Round2()
	m.TotalMonthlyRevenue = m.TotalMonthlyRevenue.Round2()
	m.TotalMonthlyCommission = m.TotalMonthlyCommission.Round2()
	m.TotalMonthlyNetIncome = netOfTax(m.TotalMonthlyCommission, s.PersonalTaxRate).Round2()
	m.TotalEarned = m.TotalEarned.Round2()
	m.ExitPayout = m.ExitPayout.Round2()
	return m
}

// ContractDetail pairs a contract with its computed metrics for the
// per-customer analytics view.
type ContractDetail struct {
	Contract engine.Contract
	Metrics  engine.ContractMetrics
}

// ComputeContractDetails evaluates each of the customer's contracts
// individually, using the customer-level reference date.
func ComputeContractDetails(cc CustomerContracts, s engine.Settings, increases []engine.PriceIncrease, schedules []engine.RateSchedule, asOf time.Time) []ContractDetail {
	referenceDate := cc.ReferenceDate()
	return lo.Map(cc.Contracts, func(c engine.Contract, _ int) ContractDetail {
		return ContractDetail{
			Contract: c,
			Metrics:  engine.ComputeContractMetrics(c, s, increases, schedules, asOf, referenceDate),
		}
	})
}

// =============================================================================
// DASHBOARD - Population-level summary
// =============================================================================

// TopCustomer is one entry in the dashboard's commission ranking.
type TopCustomer struct {
	CustomerID        string
	CustomerName      string
	MonthlyCommission engine.Money
}

// Dashboard is the population summary across every customer.
type Dashboard struct {
	TotalCustomers               int
	TotalMonthlyRevenue          engine.Money
	TotalMonthlyCommission       engine.Money
	TotalMonthlyNetIncome        engine.Money
	TotalExitPayout              engine.Money
	TotalExitPayoutNet           engine.Money
	TotalActiveContracts         int
	AverageCommissionPerCustomer engine.Money
	TopCustomers                 []TopCustomer
}

// ComputeDashboard evaluates the whole population at asOf. topN bounds
// the commission ranking; a non-positive value means DefaultTopCustomers.
func ComputeDashboard(population []CustomerContracts, s engine.Settings, increases []engine.PriceIncrease, schedules []engine.RateSchedule, asOf time.Time, topN int) Dashboard {
	if topN <= 0 {
		topN = DefaultTopCustomers
	}

	metrics := evaluatePopulation(population, s, increases, schedules, asOf)

	d := Dashboard{TotalCustomers: len(population)}
	for _, m := range metrics {
		d.TotalMonthlyRevenue = d.TotalMonthlyRevenue.Add(m.TotalMonthlyRevenue)
		d.TotalMonthlyCommission = d.TotalMonthlyCommission.Add(m.TotalMonthlyCommission)
		d.TotalExitPayout = d.TotalExitPayout.Add(m.ExitPayout)
		d.TotalActiveContracts += m.ActiveContracts
	}

	earning := lo.Filter(metrics, func(m CustomerMetrics, _ int) bool {
		return m.TotalMonthlyCommission.IsPositive()
	})
	ranked := lo.Map(earning, func(m CustomerMetrics, i int) TopCustomer {
		return TopCustomer{
			CustomerID:        m.CustomerID,
			CustomerName:      customerName(population, m.CustomerID),
			MonthlyCommission: m.TotalMonthlyCommission,
		}
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MonthlyCommission.GreaterThan(ranked[j].MonthlyCommission)
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	d.TopCustomers = ranked

	if len(population) > 0 {
		d.AverageCommissionPerCustomer = d.TotalMonthlyCommission.DivInt(len(population)).Round2()
	}
	d.TotalMonthlyRevenue = d.TotalMonthlyRevenue.Round2()
	d.TotalMonthlyCommission = d.TotalMonthlyCommission.Round2()
	d.TotalMonthlyNetIncome = netOfTax(d.TotalMonthlyCommission, s.PersonalTaxRate).Round2()
	d.TotalExitPayout = d.TotalExitPayout.Round2()
	d.TotalExitPayoutNet = netOfTax(d.TotalExitPayout, s.PersonalTaxRate).Round2()
	return d
}

// evaluatePopulation computes CustomerMetrics for every customer using
// a fixed-size worker pool. Each worker writes to a distinct index, so
// no locking is needed on the shared slice.
func evaluatePopulation(population []CustomerContracts, s engine.Settings, increases []engine.PriceIncrease, schedules []engine.RateSchedule, asOf time.Time) []CustomerMetrics {
	results := make([]CustomerMetrics, len(population))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < poolSize; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = ComputeCustomerMetrics(population[i], s, increases, schedules, asOf)
			}
		}()
	}
	for i := range population {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func customerName(population []CustomerContracts, customerID string) string {
	cc, ok := lo.Find(population, func(cc CustomerContracts) bool {
		return cc.Customer.ID == customerID
	})
	if !ok {
		return ""
	}
	return cc.Customer.Name
}

// netOfTax applies the personal tax rate: amount x (1 - rate/100).
func netOfTax(amount engine.Money, taxRate decimal.Decimal) engine.Money {
	return amount.Sub(amount.Percent(taxRate))
}
