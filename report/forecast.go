/*
forecast.go - Month-by-month commission projection

PURPOSE:

	Projects the population's revenue, commission and net income for up to
	36 future months. Each month is a full re-evaluation of every contract
	with the as-of date advanced one calendar month; rule applicability is
	not monotonic in time (lock-ins expire, tails run out), so incremental
	updates would be wrong.

KEY CONCEPTS:
  - Month boundary: The projection starts at the first day of the
    starting month and steps whole calendar months.
  - Ending count: Contracts whose end date falls inside a projected
    calendar month are counted for that month.
  - KPIs: Average/highest/lowest monthly commission plus a coarse trend
    comparing the first and second half of the horizon.
*/
package report

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/provisio/contract-engine/engine"
)

// MaxForecastMonths caps the projection horizon regardless of caller
// input, bounding aggregation cost.
const MaxForecastMonths = 36

// Trend classifications for ForecastKPIs.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// ForecastMonth is one projected month.
type ForecastMonth struct {
	Date            string // "2006-01"
	MonthName       string // "January 2006"
	TotalRevenue    engine.Money
	TotalCommission engine.Money
	TotalNetIncome  engine.Money
	ActiveContracts int
	EndingContracts int
	Cumulative      engine.Money
	CumulativeNet   engine.Money
}

// Forecast is the full projection with running cumulative sums.
type Forecast struct {
	Months []ForecastMonth
}

// GenerateForecast projects the population over the given number of
// months, starting at the first day of start's month. The horizon is
// clamped to MaxForecastMonths; a non-positive count yields an empty
// forecast.
func GenerateForecast(population []CustomerContracts, s engine.Settings, increases []engine.PriceIncrease, schedules []engine.RateSchedule, start time.Time, months int) Forecast {
	if months > MaxForecastMonths {
		months = MaxForecastMonths
	}
	if months < 0 {
		months = 0
	}
	firstMonth := engine.StartOfMonth(start)

	var (
		out           = make([]ForecastMonth, 0, months)
		cumulative    engine.Money
		cumulativeNet engine.Money
	)
	for offset := 0; offset < months; offset++ {
		monthDate := engine.AddMonths(firstMonth, offset)

		var m ForecastMonth
		m.Date = monthDate.Format("2006-01")
		m.MonthName = monthDate.Format("January 2006")

		for _, cc := range population {
			referenceDate := cc.ReferenceDate()
			for _, c := range cc.Contracts {
				price := engine.CurrentPrice(c, increases, monthDate, referenceDate)
				m.TotalRevenue = m.TotalRevenue.Add(price)

				commission := engine.CurrentCommission(c, s, increases, schedules, monthDate, referenceDate)
				if commission.IsPositive() {
					m.TotalCommission = m.TotalCommission.Add(commission)
					m.ActiveContracts++
				}

				if c.EndDate != nil && engine.SameMonth(*c.EndDate, monthDate) {
					m.EndingContracts++
				}
			}
		}

		m.TotalRevenue = m.TotalRevenue.Round2()
		m.TotalCommission = m.TotalCommission.Round2()
		m.TotalNetIncome = netOfTax(m.TotalCommission, s.PersonalTaxRate).Round2()

		cumulative = cumulative.Add(m.TotalCommission)
		cumulativeNet = cumulativeNet.Add(m.TotalNetIncome)
		m.Cumulative = cumulative.Round2()
		m.CumulativeNet = cumulativeNet.Round2()

		out = append(out, m)
	}

	return Forecast{Months: out}
}

// =============================================================================
// FORECAST KPIs
// =============================================================================

// ForecastKPIs summarizes the projection's monthly commission series.
type ForecastKPIs struct {
	Average engine.Money
	Highest engine.Money
	Lowest  engine.Money
	Trend   string
}

// KPIs derives summary statistics from the forecast. An empty forecast
// reports zeros and a stable trend.
func (f Forecast) KPIs() ForecastKPIs {
	if len(f.Months) == 0 {
		return ForecastKPIs{Trend: TrendStable}
	}

	commissions := lo.Map(f.Months, func(m ForecastMonth, _ int) engine.Money {
		return m.TotalCommission
	})

	total := lo.Reduce(commissions, func(acc engine.Money, m engine.Money, _ int) engine.Money {
		return acc.Add(m)
	}, engine.ZeroMoney())
	highest := lo.MaxBy(commissions, func(a, b engine.Money) bool { return a.GreaterThan(b) })
	lowest := lo.MinBy(commissions, func(a, b engine.Money) bool { return b.GreaterThan(a) })

	return ForecastKPIs{
		Average: total.DivInt(len(commissions)).Round2(),
		Highest: highest.Round2(),
		Lowest:  lowest.Round2(),
		Trend:   trend(commissions),
	}
}

// trend compares the average commission of the first and second half of
// the horizon, with a 5% dead band.
func trend(commissions []engine.Money) string {
	half := len(commissions) / 2
	if half == 0 {
		return TrendStable
	}

	sum := func(ms []engine.Money) engine.Money {
		return lo.Reduce(ms, func(acc engine.Money, m engine.Money, _ int) engine.Money {
			return acc.Add(m)
		}, engine.ZeroMoney())
	}
	firstAvg := sum(commissions[:half]).DivInt(half)
	secondAvg := sum(commissions[half:]).DivInt(len(commissions) - half)

	band := firstAvg.Percent(decimal.NewFromInt(5))
	switch {
	case secondAvg.GreaterThan(firstAvg.Add(band)):
		return TrendIncreasing
	case firstAvg.Sub(band).GreaterThan(secondAvg):
		return TrendDecreasing
	default:
		return TrendStable
	}
}
