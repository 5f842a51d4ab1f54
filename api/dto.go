/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:

	Defines the JSON structures for API communication. These types decouple
	the internal domain model from the external API contract, allowing:
	- Field renaming without breaking clients
	- API-specific validation
	- Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

CURRENCY:

	Contract amounts arrive in EUR or CHF. CHF amounts are converted once
	at a fixed entry rate when the contract is written; everything stored
	and computed is EUR and is never reconverted.

MONEY IN RESPONSES:

	Computed amounts are rendered as float64 rounded to 2 decimals. The
	precision-critical arithmetic all happens in decimal form inside the
	engine; the float conversion is presentation only.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/documents.go: Rule and settings document shapes
*/
package api

import (
	"github.com/provisio/contract-engine/engine"
	"github.com/provisio/contract-engine/factory"
	"github.com/provisio/contract-engine/report"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// CustomerDTO represents a customer in API responses.
type CustomerDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Name2          string `json:"name2,omitempty"`
	City           string `json:"city"`
	PostalCode     string `json:"postal_code"`
	CustomerNumber string `json:"customer_number"`
	Country        string `json:"country"`
}

// CustomerRequest is the request to create or update a customer.
type CustomerRequest struct {
	Name           string `json:"name"`
	Name2          string `json:"name2,omitempty"`
	City           string `json:"city"`
	PostalCode     string `json:"postal_code"`
	CustomerNumber string `json:"customer_number"`
	Country        string `json:"country,omitempty"`
}

// ContractDTO represents a contract in API responses. Amounts are the
// stored canonical EUR values.
type ContractDTO struct {
	ID                            string   `json:"id"`
	CustomerID                    string   `json:"customer_id"`
	SoftwareRentalAmount          float64  `json:"software_rental_amount"`
	SoftwareCareAmount            float64  `json:"software_care_amount"`
	AppsAmount                    float64  `json:"apps_amount"`
	PurchaseAmount                float64  `json:"purchase_amount"`
	CloudAmount                   float64  `json:"cloud_amount"`
	StartDate                     string   `json:"start_date"`
	EndDate                       *string  `json:"end_date,omitempty"`
	IsFounderDiscount             bool     `json:"is_founder_discount"`
	NumberOfSeats                 int      `json:"number_of_seats"`
	ExcludedPriceIncreaseIDs      []string `json:"excluded_price_increase_ids,omitempty"`
	IncludedEarlyPriceIncreaseIDs []string `json:"included_early_price_increase_ids,omitempty"`
	Notes                         string   `json:"notes,omitempty"`
}

// ContractRequest is the request to create or update a contract.
// Currency may be "EUR" (default) or "CHF"; CHF amounts are converted
// at intake.
type ContractRequest struct {
	CustomerID                    string   `json:"customer_id"`
	SoftwareRentalAmount          float64  `json:"software_rental_amount"`
	SoftwareCareAmount            float64  `json:"software_care_amount"`
	AppsAmount                    float64  `json:"apps_amount"`
	PurchaseAmount                float64  `json:"purchase_amount"`
	CloudAmount                   float64  `json:"cloud_amount"`
	Currency                      string   `json:"currency,omitempty"`
	StartDate                     string   `json:"start_date"`
	EndDate                       *string  `json:"end_date,omitempty"`
	IsFounderDiscount             bool     `json:"is_founder_discount"`
	NumberOfSeats                 int      `json:"number_of_seats"`
	ExcludedPriceIncreaseIDs      []string `json:"excluded_price_increase_ids,omitempty"`
	IncludedEarlyPriceIncreaseIDs []string `json:"included_early_price_increase_ids,omitempty"`
	Notes                         string   `json:"notes,omitempty"`
}

// ContractMetricsDTO is the computed per-contract view.
type ContractMetricsDTO struct {
	ContractID        string  `json:"contract_id"`
	Status            string  `json:"status"`
	CurrentPrice      float64 `json:"current_monthly_price"`
	MonthsRunning     int     `json:"months_running"`
	IsInFounderPeriod bool    `json:"is_in_founder_period"`
	CurrentCommission float64 `json:"current_monthly_commission"`
	EarnedToDate      float64 `json:"earned_commission_to_date"`
	ExitPayout        float64 `json:"exit_payout"`
}

// CustomerMetricsDTO is the computed per-customer rollup.
type CustomerMetricsDTO struct {
	CustomerID             string  `json:"customer_id"`
	TotalMonthlyRental     float64 `json:"total_monthly_rental"`
	TotalMonthlyRevenue    float64 `json:"total_monthly_revenue"`
	TotalMonthlyCommission float64 `json:"total_monthly_commission"`
	TotalMonthlyNetIncome  float64 `json:"total_monthly_net_income"`
	TotalEarned            float64 `json:"total_earned"`
	ExitPayout             float64 `json:"exit_payout_if_today_in_months"`
	ActiveContracts        int     `json:"active_contracts"`
}

// CustomerAnalyticsDTO is the detail view for one customer.
type CustomerAnalyticsDTO struct {
	Customer  CustomerDTO         `json:"customer"`
	Metrics   CustomerMetricsDTO  `json:"metrics"`
	Contracts []ContractDetailDTO `json:"contracts"`
}

// ContractDetailDTO pairs a contract with its computed metrics.
type ContractDetailDTO struct {
	Contract ContractDTO        `json:"contract"`
	Metrics  ContractMetricsDTO `json:"metrics"`
}

// TopCustomerDTO is one entry of the dashboard commission ranking.
type TopCustomerDTO struct {
	CustomerID        string  `json:"customer_id"`
	CustomerName      string  `json:"customer_name"`
	MonthlyCommission float64 `json:"monthly_commission"`
}

// DashboardDTO is the population summary.
type DashboardDTO struct {
	TotalCustomers               int              `json:"total_customers"`
	TotalMonthlyRevenue          float64          `json:"total_monthly_revenue"`
	TotalMonthlyCommission       float64          `json:"total_monthly_commission"`
	TotalMonthlyNetIncome        float64          `json:"total_monthly_net_income"`
	TotalExitPayout              float64          `json:"total_exit_payout"`
	TotalExitPayoutNet           float64          `json:"total_exit_payout_net"`
	TotalActiveContracts         int              `json:"total_active_contracts"`
	AverageCommissionPerCustomer float64          `json:"average_commission_per_customer"`
	TopCustomers                 []TopCustomerDTO `json:"top_customers"`
}

// ForecastMonthDTO is one projected month.
type ForecastMonthDTO struct {
	Date                string  `json:"date"`
	MonthName           string  `json:"month_name"`
	TotalRevenue        float64 `json:"total_revenue"`
	TotalCommission     float64 `json:"total_commission"`
	TotalNetIncome      float64 `json:"total_net_income"`
	ActiveContracts     int     `json:"active_contracts"`
	EndingContracts     int     `json:"ending_contracts"`
	Cumulative          float64 `json:"cumulative"`
	CumulativeNetIncome float64 `json:"cumulative_net_income"`
}

// ForecastKPIsDTO summarizes the projection.
type ForecastKPIsDTO struct {
	Average float64 `json:"average"`
	Highest float64 `json:"highest"`
	Lowest  float64 `json:"lowest"`
	Trend   string  `json:"trend"`
}

// ForecastDTO is the full projection response.
type ForecastDTO struct {
	Months []ForecastMonthDTO `json:"months"`
	KPIs   ForecastKPIsDTO    `json:"kpis"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toCustomerDTO(c engine.Customer) CustomerDTO {
	return CustomerDTO{
		ID:             c.ID,
		Name:           c.Name,
		Name2:          c.Name2,
		City:           c.City,
		PostalCode:     c.PostalCode,
		CustomerNumber: c.CustomerNumber,
		Country:        c.Country,
	}
}

func toContractDTO(c engine.Contract) ContractDTO {
	dto := ContractDTO{
		ID:                            c.ID,
		CustomerID:                    c.CustomerID,
		SoftwareRentalAmount:          moneyOut(c.SoftwareRentalAmount),
		SoftwareCareAmount:            moneyOut(c.SoftwareCareAmount),
		AppsAmount:                    moneyOut(c.AppsAmount),
		PurchaseAmount:                moneyOut(c.PurchaseAmount),
		CloudAmount:                   moneyOut(c.CloudAmount),
		StartDate:                     factory.FormatDate(c.StartDate),
		IsFounderDiscount:             c.IsFounderDiscount,
		NumberOfSeats:                 c.NumberOfSeats,
		ExcludedPriceIncreaseIDs:      c.ExcludedPriceIncreaseIDs,
		IncludedEarlyPriceIncreaseIDs: c.IncludedEarlyPriceIncreaseIDs,
		Notes:                         c.Notes,
	}
	if c.EndDate != nil {
		d := factory.FormatDate(*c.EndDate)
		dto.EndDate = &d
	}
	return dto
}

func toContractMetricsDTO(m engine.ContractMetrics) ContractMetricsDTO {
	return ContractMetricsDTO{
		ContractID:        m.ContractID,
		Status:            string(m.Status),
		CurrentPrice:      moneyOut(m.CurrentPrice),
		MonthsRunning:     m.MonthsRunning,
		IsInFounderPeriod: m.IsInFounderPeriod,
		CurrentCommission: moneyOut(m.CurrentCommission),
		EarnedToDate:      moneyOut(m.EarnedToDate),
		ExitPayout:        moneyOut(m.ExitPayout),
	}
}

func toCustomerMetricsDTO(m report.CustomerMetrics) CustomerMetricsDTO {
	return CustomerMetricsDTO{
		CustomerID:             m.CustomerID,
		TotalMonthlyRental:     moneyOut(m.TotalMonthlyRental),
		TotalMonthlyRevenue:    moneyOut(m.TotalMonthlyRevenue),
		TotalMonthlyCommission: moneyOut(m.TotalMonthlyCommission),
		TotalMonthlyNetIncome:  moneyOut(m.TotalMonthlyNetIncome),
		TotalEarned:            moneyOut(m.TotalEarned),
		ExitPayout:             moneyOut(m.ExitPayout),
		ActiveContracts:        m.ActiveContracts,
	}
}

func toDashboardDTO(d report.Dashboard) DashboardDTO {
	top := make([]TopCustomerDTO, len(d.TopCustomers))
	for i, tc := range d.TopCustomers {
		top[i] = TopCustomerDTO{
			CustomerID:        tc.CustomerID,
			CustomerName:      tc.CustomerName,
			MonthlyCommission: moneyOut(tc.MonthlyCommission),
		}
	}
	return DashboardDTO{
		TotalCustomers:               d.TotalCustomers,
		TotalMonthlyRevenue:          moneyOut(d.TotalMonthlyRevenue),
		TotalMonthlyCommission:       moneyOut(d.TotalMonthlyCommission),
		TotalMonthlyNetIncome:        moneyOut(d.TotalMonthlyNetIncome),
		TotalExitPayout:              moneyOut(d.TotalExitPayout),
		TotalExitPayoutNet:           moneyOut(d.TotalExitPayoutNet),
		TotalActiveContracts:         d.TotalActiveContracts,
		AverageCommissionPerCustomer: moneyOut(d.AverageCommissionPerCustomer),
		TopCustomers:                 top,
	}
}

func toForecastDTO(f report.Forecast) ForecastDTO {
	months := make([]ForecastMonthDTO, len(f.Months))
	for i, m := range f.Months {
		months[i] = ForecastMonthDTO{
			Date:                m.Date,
			MonthName:           m.MonthName,
			TotalRevenue:        moneyOut(m.TotalRevenue),
			TotalCommission:     moneyOut(m.TotalCommission),
			TotalNetIncome:      moneyOut(m.TotalNetIncome),
			ActiveContracts:     m.ActiveContracts,
			EndingContracts:     m.EndingContracts,
			Cumulative:          moneyOut(m.Cumulative),
			CumulativeNetIncome: moneyOut(m.CumulativeNet),
		}
	}
	kpis := f.KPIs()
	return ForecastDTO{
		Months: months,
		KPIs: ForecastKPIsDTO{
			Average: moneyOut(kpis.Average),
			Highest: moneyOut(kpis.Highest),
			Lowest:  moneyOut(kpis.Lowest),
			Trend:   kpis.Trend,
		},
	}
}

func moneyOut(m engine.Money) float64 {
	return m.Round2().Float64()
}
