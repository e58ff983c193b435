package tradebook

import (
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/tradebook/date"
)

// TaxSchedule holds the flat rates applied per income category.
type TaxSchedule struct {
	ShortTerm Rate `json:"shortTerm"`
	LongTerm  Rate `json:"longTerm"`
	Dividends Rate `json:"dividends"`
}

// Rate returns the rate applicable to a treatment.
func (s TaxSchedule) Rate(t TaxTreatment) Rate {
	if t == LongTerm {
		return s.LongTerm
	}
	return s.ShortTerm
}

// schedules are simplified flat rates by residency.
var schedules = map[string]TaxSchedule{
	"US": {ShortTerm: 0.24, LongTerm: 0.15, Dividends: 0.15},
	"UK": {ShortTerm: 0.20, LongTerm: 0.20, Dividends: 0.0875},
	"DE": {ShortTerm: 0.26375, LongTerm: 0.26375, Dividends: 0.26375},
	"FR": {ShortTerm: 0.30, LongTerm: 0.30, Dividends: 0.30},
	"PT": {ShortTerm: 0.28, LongTerm: 0.28, Dividends: 0.28},
	"NL": {ShortTerm: 0, LongTerm: 0, Dividends: 0.15},
	"CY": {ShortTerm: 0, LongTerm: 0, Dividends: 0.05},
}

// Residencies returns the residencies with a known tax schedule, sorted.
func Residencies() []string { return sortedKeys(schedules) }

// ScheduleOf returns the tax schedule of a residency.
func ScheduleOf(residency string) (TaxSchedule, error) {
	s, ok := schedules[strings.ToUpper(residency)]
	if !ok {
		return TaxSchedule{}, fmt.Errorf("%w: %q", ErrUnknownResidency, residency)
	}
	return s, nil
}

// RiskLevel is the risk of acting on a recommendation.
type RiskLevel int

const (
	LowRisk RiskLevel = iota
	MediumRisk
	HighRisk
)

func (r RiskLevel) String() string {
	switch r {
	case LowRisk:
		return "low"
	case MediumRisk:
		return "medium"
	case HighRisk:
		return "high"
	default:
		return "unknown"
	}
}

func (r RiskLevel) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// RiskTolerance bounds the risk of the recommendations kept.
type RiskTolerance int

const (
	Conservative RiskTolerance = iota
	Moderate
	Aggressive
)

func (t RiskTolerance) String() string {
	switch t {
	case Conservative:
		return "conservative"
	case Moderate:
		return "moderate"
	case Aggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// Allows reports whether a recommendation of risk r is acceptable.
func (t RiskTolerance) Allows(r RiskLevel) bool {
	return slices.Contains(t.allowed(), r)
}

func (t RiskTolerance) allowed() []RiskLevel {
	switch t {
	case Conservative:
		return []RiskLevel{LowRisk}
	case Moderate:
		return []RiskLevel{LowRisk, MediumRisk}
	case Aggressive:
		return []RiskLevel{LowRisk, MediumRisk, HighRisk}
	default:
		return nil
	}
}

// ParseRiskTolerance parses a risk tolerance name.
func ParseRiskTolerance(s string) (RiskTolerance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "conservative":
		return Conservative, nil
	case "moderate":
		return Moderate, nil
	case "aggressive":
		return Aggressive, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTolerance, s)
	}
}

func (t RiskTolerance) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *RiskTolerance) UnmarshalText(text []byte) error {
	v, err := ParseRiskTolerance(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TaxSettings configure the tax part of a calculation.
type TaxSettings struct {
	Year      int    `json:"year"`
	Residency string `json:"residency"`
	Currency  string `json:"currency"` // reporting currency
	// Schedule overrides the residency rates when set.
	Schedule *TaxSchedule `json:"schedule,omitempty"`
	// HarvestThreshold is the unrealized result, in the reporting currency, under which a
	// position is worth harvesting. It is negative.
	HarvestThreshold float64       `json:"harvestThreshold"`
	Tolerance        RiskTolerance `json:"riskTolerance"`
}

// DefaultTaxSettings returns US settings for the current year.
func DefaultTaxSettings() TaxSettings {
	return TaxSettings{
		Year:             date.Today().Year(),
		Residency:        "US",
		Currency:         "USD",
		HarvestThreshold: -100,
		Tolerance:        Moderate,
	}
}

// schedule returns the applicable schedule.
func (s TaxSettings) schedule() (TaxSchedule, error) {
	if s.Schedule != nil {
		return *s.Schedule, nil
	}
	return ScheduleOf(s.Residency)
}

// TaxCalculation is the estimated liability of a year.
type TaxCalculation struct {
	Year            int     `json:"year"`
	Residency       string  `json:"residency"`
	ShortTermGains  Money   `json:"shortTermGains"`
	LongTermGains   Money   `json:"longTermGains"`
	DividendIncome  Money   `json:"dividendIncome"`
	HarvestedLosses Money   `json:"harvestedLosses"` // magnitude of the losses realized
	EstimatedTax    Money   `json:"estimatedTax"`
	EffectiveRate   Percent `json:"effectiveRate"`
}

// CalculateTaxLiability estimates the tax due for a year on the given tax lots and dividends.
//
// All amounts are converted to cur with rates, missing rates fall back to 1.
func CalculateTaxLiability(year int, residency string, schedule TaxSchedule, lots []TaxLot, dividends []Dividend, rates Rates, cur string) TaxCalculation {
	zero := M(0, cur)
	calc := TaxCalculation{
		Year:            year,
		Residency:       residency,
		ShortTermGains:  zero,
		LongTermGains:   zero,
		DividendIncome:  zero,
		HarvestedLosses: zero,
	}
	period := date.Year(year)
	for _, l := range lots {
		if !period.Contains(l.DispositionDate) {
			continue
		}
		gain := rates.ConvertTo(l.Gain, cur)
		switch {
		case gain.IsNegative():
			calc.HarvestedLosses = calc.HarvestedLosses.Add(gain.Neg())
		case l.Treatment == LongTerm:
			calc.LongTermGains = calc.LongTermGains.Add(gain)
		default:
			calc.ShortTermGains = calc.ShortTermGains.Add(gain)
		}
	}
	for _, d := range dividends {
		if period.Contains(d.Date) {
			calc.DividendIncome = calc.DividendIncome.Add(rates.ConvertTo(d.Amount, cur))
		}
	}
	calc.EstimatedTax = calc.ShortTermGains.MulRate(schedule.ShortTerm).
		Add(calc.LongTermGains.MulRate(schedule.LongTerm)).
		Add(calc.DividendIncome.MulRate(schedule.Dividends))

	gains := calc.ShortTermGains.Add(calc.LongTermGains)
	if gains.IsPositive() {
		calc.EffectiveRate = Percent(ratio(calc.EstimatedTax, gains) * 100)
	}
	return calc
}
