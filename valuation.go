package tradebook

import (
	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
)

// PositionValuation is an open position marked to market.
type PositionValuation struct {
	Ticker      string   `json:"ticker"`
	Quantity    Quantity `json:"quantity"`
	AverageCost Money    `json:"averageCost"`
	TotalCost   Money    `json:"totalCost"`
	// Price is the market price, zero when unknown.
	Price    Money `json:"price"`
	HasPrice bool  `json:"hasPrice"`
	// MarketValue is Price*Quantity, or the total cost when the price is unknown.
	MarketValue       Money   `json:"marketValue"`
	UnrealizedProfit  Money   `json:"unrealizedProfit"`
	UnrealizedPercent Percent `json:"unrealizedPercent"`
	// Value is the market value converted to the base currency.
	Value              Money     `json:"value"`
	OpenedOn           date.Date `json:"openedOn"`
	AverageHoldingDays int       `json:"averageHoldingDays"`
}

// Currency of the position.
func (v PositionValuation) Currency() string { return v.TotalCost.Currency() }

// Valuate marks open positions to market with prices, expressed in each position's currency.
// Positions without a price are valued at cost.
func Valuate(positions OpenPositions, prices map[string]decimal.Decimal, rates Rates, on date.Date) []PositionValuation {
	var res []PositionValuation
	for _, ticker := range positions.Tickers() {
		lots := positions[ticker]
		q := lots.Quantity()
		if !q.IsPositive() {
			continue
		}
		cost := lots.Cost()
		cur := cost.Currency()
		v := PositionValuation{
			Ticker:             ticker,
			Quantity:           q,
			AverageCost:        lots.AverageCost().exact(),
			TotalCost:          cost,
			Price:              M(0, cur),
			MarketValue:        cost,
			UnrealizedProfit:   M(0, cur),
			OpenedOn:           lots[0].Date,
			AverageHoldingDays: averageHoldingDays(lots, on),
		}
		if p, ok := prices[ticker]; ok && p.IsPositive() {
			v.Price = M(p, cur).exact()
			v.HasPrice = true
			v.MarketValue = M(p, cur).Mul(q)
			v.UnrealizedProfit = v.MarketValue.Sub(cost)
			v.UnrealizedPercent = Percent(ratio(v.UnrealizedProfit, cost) * 100)
		}
		v.Value = rates.Convert(v.MarketValue)
		res = append(res, v)
	}
	return res
}

// averageHoldingDays returns the quantity weighted average age of the lots.
func averageHoldingDays(lots Lots, on date.Date) int {
	var days, total decimal.Decimal
	for _, l := range lots {
		days = days.Add(l.Quantity.value.Mul(decimal.NewFromInt(int64(on.DaysSince(l.Date)))))
		total = total.Add(l.Quantity.value)
	}
	if total.IsZero() {
		return 0
	}
	return int(days.Div(total).IntPart())
}
