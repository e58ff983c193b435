package tradebook

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/etnz/tradebook/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecommendationKind is the kind of a tax optimization.
type RecommendationKind int

const (
	Harvesting RecommendationKind = iota
	Deferral
	AssetLocation
	Carryforward
)

func (k RecommendationKind) String() string {
	switch k {
	case Harvesting:
		return "harvesting"
	case Deferral:
		return "deferral"
	case AssetLocation:
		return "asset_location"
	case Carryforward:
		return "carryforward"
	default:
		return "unknown"
	}
}

func (k RecommendationKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

var recommendationSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/etnz/tradebook/recommendation"))

// Recommendation is a ranked tax optimization.
type Recommendation struct {
	ID               string             `json:"id"`
	Kind             RecommendationKind `json:"kind"`
	Ticker           string             `json:"ticker,omitempty"`
	Description      string             `json:"description"`
	EstimatedSavings Money              `json:"estimatedSavings"` // in the reporting currency
	Risk             RiskLevel          `json:"risk"`
}

func newRecommendation(kind RecommendationKind, ticker string, savings Money, risk RiskLevel, format string, args ...any) Recommendation {
	return Recommendation{
		ID:               uuid.NewSHA1(recommendationSpace, []byte(kind.String()+"|"+ticker)).String(),
		Kind:             kind,
		Ticker:           ticker,
		Description:      fmt.Sprintf(format, args...),
		EstimatedSavings: savings,
		Risk:             risk,
	}
}

// OptimizationInput gathers what the optimizer ranks.
type OptimizationInput struct {
	Settings      TaxSettings
	Schedule      TaxSchedule
	Tax           TaxCalculation
	Harvesting    []HarvestingOpportunity
	OpenPositions OpenPositions
	Prices        map[string]decimal.Decimal
	Dividends     []Dividend
	Rates         Rates
	AsOf          date.Date
}

// Optimize lists the tax optimizations, most valuable first, within the risk tolerance.
func Optimize(in OptimizationInput) []Recommendation {
	cur := in.Settings.Currency
	var recs []Recommendation

	for _, h := range in.Harvesting {
		recs = append(recs, newRecommendation(Harvesting, h.Ticker, h.EstimatedSavings, h.Risk,
			"Sell %s %s to realize a loss of %s", h.Quantity, h.Ticker, h.UnrealizedLoss.Neg()))
	}
	recs = append(recs, deferrals(in)...)
	recs = append(recs, assetLocations(in)...)

	// losses exceeding the gains of the year can offset future gains.
	gains := in.Tax.ShortTermGains.Add(in.Tax.LongTermGains)
	if excess := in.Tax.HarvestedLosses.Sub(gains); excess.IsPositive() {
		recs = append(recs, newRecommendation(Carryforward, "", excess.MulRate(in.Schedule.ShortTerm), LowRisk,
			"Carry %s of unused %d losses forward to offset future gains", excess, in.Tax.Year))
	}

	recs = slices.DeleteFunc(recs, func(r Recommendation) bool {
		return !in.Settings.Tolerance.Allows(r.Risk) || !r.EstimatedSavings.IsPositive()
	})
	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		if c := b.EstimatedSavings.Decimal().Cmp(a.EstimatedSavings.Decimal()); c != 0 {
			return c
		}
		return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Ticker, b.Ticker))
	})
	for i := range recs {
		recs[i].EstimatedSavings = M(0, cur).Add(recs[i].EstimatedSavings)
	}
	return recs
}

// deferrals proposes to wait for short term gains to become long term.
func deferrals(in OptimizationInput) []Recommendation {
	spread := in.Schedule.ShortTerm - in.Schedule.LongTerm
	if spread <= 0 {
		return nil
	}
	var recs []Recommendation
	for _, ticker := range in.OpenPositions.Tickers() {
		price, ok := in.Prices[ticker]
		if !ok || !price.IsPositive() {
			continue
		}
		savings := M(0, in.Settings.Currency)
		wait := 0
		for _, l := range in.OpenPositions[ticker] {
			held := in.AsOf.DaysSince(l.Date)
			if held >= LongTermDays {
				continue
			}
			gain := M(price, l.Currency()).Mul(l.Quantity).Sub(l.Cost)
			if !gain.IsPositive() {
				continue
			}
			savings = savings.Add(in.Rates.ConvertTo(gain, in.Settings.Currency).MulRate(spread))
			wait = max(wait, LongTermDays-held)
		}
		if !savings.IsPositive() {
			continue
		}
		recs = append(recs, newRecommendation(Deferral, ticker, savings, deferralRisk(wait),
			"Hold %s %d more days before selling to qualify for long term rates", ticker, wait))
	}
	return recs
}

// deferralRisk grows with the time the position must still be held.
func deferralRisk(days int) RiskLevel {
	switch {
	case days <= 30:
		return LowRisk
	case days <= 90:
		return MediumRisk
	default:
		return HighRisk
	}
}

// assetLocations proposes to move dividend payers of the year to a tax advantaged account.
func assetLocations(in OptimizationInput) []Recommendation {
	if in.Schedule.Dividends <= 0 {
		return nil
	}
	period := date.Year(in.Settings.Year)
	income := make(map[string]Money)
	for _, d := range in.Dividends {
		if d.Ticker == "" || !period.Contains(d.Date) {
			continue
		}
		income[d.Ticker] = M(0, in.Settings.Currency).Add(income[d.Ticker]).Add(in.Rates.ConvertTo(d.Amount, in.Settings.Currency))
	}
	var recs []Recommendation
	for _, ticker := range sortedKeys(income) {
		recs = append(recs, newRecommendation(AssetLocation, ticker, income[ticker].MulRate(in.Schedule.Dividends), LowRisk,
			"Hold %s in a tax advantaged account, it paid %s of dividends in %d", ticker, income[ticker], in.Settings.Year))
	}
	return recs
}
