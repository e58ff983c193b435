package tradebook

import (
	"math"
)

// HarvestingOpportunity is an open position whose unrealized loss is worth realizing.
type HarvestingOpportunity struct {
	Ticker             string       `json:"ticker"`
	Quantity           Quantity     `json:"quantity"`
	AverageCost        Money        `json:"averageCost"`
	Price              Money        `json:"price"`
	UnrealizedLoss     Money        `json:"unrealizedLoss"` // negative, in the position currency
	AverageHoldingDays int          `json:"averageHoldingDays"`
	Treatment          TaxTreatment `json:"taxTreatment"`
	// Confidence grows with the gap between price and average cost, in [0,1].
	Confidence       float64   `json:"confidence"`
	Risk             RiskLevel `json:"risk"`
	EstimatedSavings Money     `json:"estimatedSavings"` // in the reporting currency
}

// HoldingRisk returns the risk of realizing a position held for days on average.
func HoldingRisk(days int) RiskLevel {
	switch {
	case days < 30:
		return HighRisk
	case days < LongTermDays:
		return MediumRisk
	default:
		return LowRisk
	}
}

// IdentifyHarvestingOpportunities selects the priced positions whose unrealized result, converted
// to cur, is lower than or equal to threshold (a negative amount).
func IdentifyHarvestingOpportunities(valuations []PositionValuation, threshold float64, schedule TaxSchedule, rates Rates, cur string) []HarvestingOpportunity {
	var res []HarvestingOpportunity
	for _, v := range valuations {
		if !v.HasPrice || !v.UnrealizedProfit.IsNegative() {
			continue
		}
		loss := rates.ConvertTo(v.UnrealizedProfit, cur)
		if loss.AsFloat() > threshold {
			continue
		}
		treatment := Treatment(v.AverageHoldingDays)
		confidence := 0.0
		if v.AverageCost.IsPositive() {
			confidence = math.Min(1, math.Abs(ratio(v.Price.Sub(v.AverageCost), v.AverageCost)))
		}
		res = append(res, HarvestingOpportunity{
			Ticker:             v.Ticker,
			Quantity:           v.Quantity,
			AverageCost:        v.AverageCost,
			Price:              v.Price,
			UnrealizedLoss:     v.UnrealizedProfit,
			AverageHoldingDays: v.AverageHoldingDays,
			Treatment:          treatment,
			Confidence:         confidence,
			Risk:               HoldingRisk(v.AverageHoldingDays),
			EstimatedSavings:   loss.Neg().MulRate(schedule.Rate(treatment)),
		})
	}
	return res
}
