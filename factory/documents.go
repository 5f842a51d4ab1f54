/*
Package factory provides JSON document to engine type conversion.

PURPOSE:

	Converts the JSON documents used for persistence and API exchange into
	engine types. This is the tolerance boundary: revenue-stream keys are
	normalized here (snake_case, camelCase and PascalCase spellings all
	resolve) and unknown keys are dropped, so the engine only ever sees
	the closed canonical stream set.

JSON SCHEMA (settings):

	{
	  "founder_delay_months": 12,
	  "post_contract_months": {"software_rental": 12, "software_care": 12,
	                           "apps": 12, "purchase": 12},
	  "min_contract_months_for_payout": 60,
	  "exit_payout_tiers": [
	    {"min_seats": 1, "max_seats": 5, "months": 48},
	    {"min_seats": 6, "max_seats": 10, "months": 54}
	  ],
	  "exit_payout_by_type": {
	    "software_rental": {"enabled": true, "additional_months": 12}
	  },
	  "personal_tax_rate": 42.0
	}

KEY FEATURES:
  - Validates JSON structure
  - Applies the documented defaults for absent settings fields
  - Normalizes stream keys, drops unrecognized ones
  - Parses dates in both date-only and RFC 3339 form

USAGE:

	settings, err := factory.ParseSettings(jsonStr)
	rule, err := factory.PriceIncreaseFromJSON(doc)

SEE ALSO:
  - engine/types.go: The target types
  - store/sqlite: Persists these documents in JSON columns
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/provisio/contract-engine/engine"
)

// Defaults applied when a settings document omits a field. These mirror
// the historical configuration the system shipped with.
const (
	DefaultFounderDelayMonths = 12
	DefaultMinContractMonths  = 60
	DefaultPersonalTaxRate    = 42.0
	DefaultPostContractMonths = 12
	DefaultLockInMonths       = 24
)

// =============================================================================
// JSON DOCUMENT TYPES
// =============================================================================

// SettingsJSON is the stored/exchanged form of engine.Settings. Pointer
// fields distinguish "absent, use default" from explicit zero values.
type SettingsJSON struct {
	FounderDelayMonths         *int                          `json:"founder_delay_months,omitempty"`
	PostContractMonths         map[string]int                `json:"post_contract_months,omitempty"`
	MinContractMonthsForPayout *int                          `json:"min_contract_months_for_payout,omitempty"`
	ExitPayoutTiers            []ExitTierJSON                `json:"exit_payout_tiers,omitempty"`
	ExitPayoutByType           map[string]ExitPayoutRuleJSON `json:"exit_payout_by_type,omitempty"`
	PersonalTaxRate            *float64                      `json:"personal_tax_rate,omitempty"`
}

// ExitTierJSON is one seat-count tier of the exit payout staffel.
type ExitTierJSON struct {
	MinSeats int `json:"min_seats"`
	MaxSeats int `json:"max_seats"`
	Months   int `json:"months"`
}

// ExitPayoutRuleJSON is the per-stream exit payout configuration.
type ExitPayoutRuleJSON struct {
	Enabled          bool `json:"enabled"`
	AdditionalMonths int  `json:"additional_months,omitempty"`
}

// PriceIncreaseJSON is the stored/exchanged form of a price increase.
type PriceIncreaseJSON struct {
	ID              string             `json:"id,omitempty"`
	ValidFrom       string             `json:"valid_from"`
	AmountIncreases map[string]float64 `json:"amount_increases"`
	LockInMonths    *int               `json:"lock_in_months,omitempty"`
	Description     string             `json:"description,omitempty"`
}

// RateScheduleJSON is the stored/exchanged form of a commission rate
// card.
type RateScheduleJSON struct {
	ID          string             `json:"id,omitempty"`
	ValidFrom   string             `json:"valid_from"`
	Rates       map[string]float64 `json:"rates"`
	Description string             `json:"description,omitempty"`
}

// =============================================================================
// SETTINGS
// =============================================================================

// ParseSettings parses a settings JSON string, applying defaults for
// absent fields.
func ParseSettings(jsonStr string) (engine.Settings, error) {
	var sj SettingsJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return engine.Settings{}, fmt.Errorf("failed to parse settings JSON: %w", err)
	}
	return SettingsFromJSON(sj), nil
}

// SettingsFromJSON converts a settings document to engine.Settings.
func SettingsFromJSON(sj SettingsJSON) engine.Settings {
	s := engine.Settings{
		FounderDelayMonths:         DefaultFounderDelayMonths,
		MinContractMonthsForPayout: DefaultMinContractMonths,
		PersonalTaxRate:            decimal.NewFromFloat(DefaultPersonalTaxRate),
	}
	if sj.FounderDelayMonths != nil {
		s.FounderDelayMonths = *sj.FounderDelayMonths
	}
	if sj.MinContractMonthsForPayout != nil {
		s.MinContractMonthsForPayout = *sj.MinContractMonthsForPayout
	}
	if sj.PersonalTaxRate != nil {
		s.PersonalTaxRate = decimal.NewFromFloat(*sj.PersonalTaxRate)
	}

	if sj.PostContractMonths != nil {
		s.PostContractMonths = streamMonths(sj.PostContractMonths)
	} else {
		s.PostContractMonths = defaultPostContractMonths()
	}

	for _, tj := range sj.ExitPayoutTiers {
		s.ExitPayoutTiers = append(s.ExitPayoutTiers, engine.ExitTier{
			MinSeats: tj.MinSeats,
			MaxSeats: tj.MaxSeats,
			Months:   tj.Months,
		})
	}

	if sj.ExitPayoutByType != nil {
		s.ExitPayoutByStream = make(map[engine.Stream]engine.ExitPayoutRule, len(sj.ExitPayoutByType))
		for key, rj := range sj.ExitPayoutByType {
			stream, ok := engine.ParseStream(key)
			if !ok {
				continue
			}
			s.ExitPayoutByStream[stream] = engine.ExitPayoutRule{
				Enabled:          rj.Enabled,
				AdditionalMonths: rj.AdditionalMonths,
			}
		}
	} else {
		s.ExitPayoutByStream = defaultExitPayoutByStream()
	}

	return s
}

// SettingsToJSON converts engine.Settings back to its document form.
func SettingsToJSON(s engine.Settings) SettingsJSON {
	tax, _ := s.PersonalTaxRate.Float64()
	sj := SettingsJSON{
		FounderDelayMonths:         &s.FounderDelayMonths,
		MinContractMonthsForPayout: &s.MinContractMonthsForPayout,
		PersonalTaxRate:            &tax,
		PostContractMonths:         make(map[string]int, len(s.PostContractMonths)),
		ExitPayoutByType:           make(map[string]ExitPayoutRuleJSON, len(s.ExitPayoutByStream)),
	}
	for stream, months := range s.PostContractMonths {
		sj.PostContractMonths[string(stream)] = months
	}
	for stream, rule := range s.ExitPayoutByStream {
		sj.ExitPayoutByType[string(stream)] = ExitPayoutRuleJSON{
			Enabled:          rule.Enabled,
			AdditionalMonths: rule.AdditionalMonths,
		}
	}
	for _, tier := range s.ExitPayoutTiers {
		sj.ExitPayoutTiers = append(sj.ExitPayoutTiers, ExitTierJSON{
			MinSeats: tier.MinSeats,
			MaxSeats: tier.MaxSeats,
			Months:   tier.Months,
		})
	}
	return sj
}

func defaultPostContractMonths() map[engine.Stream]int {
	return map[engine.Stream]int{
		engine.StreamSoftwareRental: DefaultPostContractMonths,
		engine.StreamSoftwareCare:   DefaultPostContractMonths,
		engine.StreamApps:           DefaultPostContractMonths,
		engine.StreamPurchase:       DefaultPostContractMonths,
	}
}

func defaultExitPayoutByStream() map[engine.Stream]engine.ExitPayoutRule {
	return map[engine.Stream]engine.ExitPayoutRule{
		engine.StreamSoftwareRental: {Enabled: true, AdditionalMonths: 12},
		engine.StreamSoftwareCare:   {Enabled: false},
		engine.StreamApps:           {Enabled: true, AdditionalMonths: 12},
		engine.StreamPurchase:       {Enabled: true, AdditionalMonths: 12},
		engine.StreamCloud:          {Enabled: false},
	}
}

// =============================================================================
// EFFECTIVE-DATED RULES
// =============================================================================

// ParsePriceIncrease parses a price increase JSON string.
func ParsePriceIncrease(jsonStr string) (engine.PriceIncrease, error) {
	var pj PriceIncreaseJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return engine.PriceIncrease{}, fmt.Errorf("failed to parse price increase JSON: %w", err)
	}
	return PriceIncreaseFromJSON(pj)
}

// PriceIncreaseFromJSON converts a price increase document to its
// engine type. Unknown stream keys in amount_increases are dropped.
func PriceIncreaseFromJSON(pj PriceIncreaseJSON) (engine.PriceIncrease, error) {
	validFrom, err := ParseDate(pj.ValidFrom)
	if err != nil {
		return engine.PriceIncrease{}, fmt.Errorf("price increase %s: invalid valid_from: %w", pj.ID, err)
	}

	lockIn := DefaultLockInMonths
	if pj.LockInMonths != nil {
		lockIn = *pj.LockInMonths
	}
	if lockIn < 0 {
		lockIn = 0
	}

	return engine.PriceIncrease{
		ID:           pj.ID,
		ValidFrom:    validFrom,
		LockInMonths: lockIn,
		Increases:    streamPercentages(pj.AmountIncreases),
		Description:  pj.Description,
	}, nil
}

// PriceIncreaseToJSON converts a price increase back to its document
// form.
func PriceIncreaseToJSON(p engine.PriceIncrease) PriceIncreaseJSON {
	lockIn := p.LockInMonths
	return PriceIncreaseJSON{
		ID:              p.ID,
		ValidFrom:       FormatDate(p.ValidFrom),
		AmountIncreases: percentagesToJSON(p.Increases),
		LockInMonths:    &lockIn,
		Description:     p.Description,
	}
}

// ParseRateSchedule parses a commission rate card JSON string.
func ParseRateSchedule(jsonStr string) (engine.RateSchedule, error) {
	var rj RateScheduleJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return engine.RateSchedule{}, fmt.Errorf("failed to parse rate schedule JSON: %w", err)
	}
	return RateScheduleFromJSON(rj)
}

// RateScheduleFromJSON converts a rate card document to its engine
// type. An absent rates map falls back to the default rate card.
func RateScheduleFromJSON(rj RateScheduleJSON) (engine.RateSchedule, error) {
	validFrom, err := ParseDate(rj.ValidFrom)
	if err != nil {
		return engine.RateSchedule{}, fmt.Errorf("rate schedule %s: invalid valid_from: %w", rj.ID, err)
	}

	rates := streamPercentages(rj.Rates)
	if len(rates) == 0 {
		rates = engine.DefaultCommissionRates()
	}

	return engine.RateSchedule{
		ID:          rj.ID,
		ValidFrom:   validFrom,
		Rates:       rates,
		Description: rj.Description,
	}, nil
}

// RateScheduleToJSON converts a rate card back to its document form.
func RateScheduleToJSON(r engine.RateSchedule) RateScheduleJSON {
	return RateScheduleJSON{
		ID:          r.ID,
		ValidFrom:   FormatDate(r.ValidFrom),
		Rates:       percentagesToJSON(r.Rates),
		Description: r.Description,
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// dateLayouts are accepted valid_from/start_date spellings: date-only
// from the admin UI, RFC 3339 from API clients.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// ParseDate parses a document date in any accepted layout, normalized
// to UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatDate renders a date in the canonical document layout.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// streamPercentages normalizes a string-keyed percentage map, dropping
// unrecognized stream keys.
func streamPercentages(raw map[string]float64) map[engine.Stream]decimal.Decimal {
	out := make(map[engine.Stream]decimal.Decimal, len(raw))
	for key, pct := range raw {
		stream, ok := engine.ParseStream(key)
		if !ok {
			continue
		}
		out[stream] = decimal.NewFromFloat(pct)
	}
	return out
}

// streamMonths normalizes a string-keyed month-count map, dropping
// unrecognized stream keys.
func streamMonths(raw map[string]int) map[engine.Stream]int {
	out := make(map[engine.Stream]int, len(raw))
	for key, months := range raw {
		stream, ok := engine.ParseStream(key)
		if !ok {
			continue
		}
		out[stream] = months
	}
	return out
}

func percentagesToJSON(m map[engine.Stream]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(m))
	for stream, pct := range m {
		f, _ := pct.Float64()
		out[string(stream)] = f
	}
	return out
}
