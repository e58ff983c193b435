package tradebook

import (
	"math"

	"github.com/etnz/tradebook/date"
)

// Metrics summarize the performance of the account in the base currency.
type Metrics struct {
	Currency           string  `json:"currency"`
	TotalInvested      Money   `json:"totalInvested"`
	CurrentValue       Money   `json:"currentValue"`
	RealizedProfit     Money   `json:"realizedProfit"`
	UnrealizedProfit   Money   `json:"unrealizedProfit"`
	Dividends          Money   `json:"dividends"`
	Fees               Money   `json:"fees"`
	ROI                Percent `json:"roi"`
	AnnualizedReturn   Percent `json:"annualizedReturn"`
	Winning            int     `json:"winningTrades"`
	Losing             int     `json:"losingTrades"`
	WinRate            Percent `json:"winRate"`      // winning over winning and losing
	WinLossRatio       float64 `json:"winLossRatio"` // winning over losing, 0 without losing trades
	AverageHoldingDays float64 `json:"averageHoldingDays"`
}

// ROI returns the return on investment in percent, 0 when nothing was invested.
func ROI(current, invested Money) Percent {
	if !invested.IsPositive() {
		return 0
	}
	return Percent(ratio(current.Sub(invested), invested) * 100)
}

// AnnualizedReturn compounds roi over years. It never goes below -100%.
func AnnualizedReturn(roi Percent, years float64) Percent {
	if years <= 0 {
		return roi
	}
	growth := 1 + float64(roi)/100
	if growth <= 0 {
		return -100
	}
	return Percent(math.Max(-100, (math.Pow(growth, 1/years)-1)*100))
}

// WinLossRatio returns winning over losing trades, 0 when there is no losing trade.
func WinLossRatio(winning, losing int) float64 {
	if losing == 0 {
		return 0
	}
	return float64(winning) / float64(losing)
}

// ComputeMetrics derives the performance metrics.
//
// Invested is the cost of all the buys, fees included. Current value is the market value of the
// open positions plus the proceeds of all sales and the dividends received.
func ComputeMetrics(records Records, closed []ClosedTrade, valuations []PositionValuation, totals map[string]CurrencyTotals, rates Rates, on date.Date) Metrics {
	base := rates.Base
	m := Metrics{
		Currency:         base,
		TotalInvested:    M(0, base),
		CurrentValue:     M(0, base),
		RealizedProfit:   M(0, base),
		UnrealizedProfit: M(0, base),
		Dividends:        M(0, base),
		Fees:             M(0, base),
	}

	var first date.Date
	for _, t := range records.Trades {
		if first.IsZero() || t.Date.Before(first) {
			first = t.Date
		}
		if t.Direction == Buy {
			m.TotalInvested = m.TotalInvested.Add(rates.Convert(t.Settled().Add(t.Fee)))
		}
	}
	for _, v := range valuations {
		m.CurrentValue = m.CurrentValue.Add(v.Value)
		m.UnrealizedProfit = m.UnrealizedProfit.Add(rates.Convert(v.UnrealizedProfit))
	}
	for _, c := range closed {
		m.CurrentValue = m.CurrentValue.Add(rates.Convert(c.SaleProceeds))
		switch {
		case c.RealizedProfit.IsPositive():
			m.Winning++
		case c.RealizedProfit.IsNegative():
			m.Losing++
		}
	}
	for _, cur := range sortedKeys(totals) {
		t := totals[cur]
		m.RealizedProfit = m.RealizedProfit.Add(rates.Convert(t.RealizedProfit))
		m.Dividends = m.Dividends.Add(rates.Convert(t.Dividends))
		m.Fees = m.Fees.Add(rates.Convert(t.FeesPaid))
	}
	m.CurrentValue = m.CurrentValue.Add(m.Dividends)

	m.ROI = ROI(m.CurrentValue, m.TotalInvested)
	if !first.IsZero() {
		m.AnnualizedReturn = AnnualizedReturn(m.ROI, on.YearsSince(first))
	}
	if n := m.Winning + m.Losing; n > 0 {
		m.WinRate = Percent(float64(m.Winning) / float64(n) * 100)
	}
	m.WinLossRatio = WinLossRatio(m.Winning, m.Losing)
	m.AverageHoldingDays = AverageHoldingPeriod(records.Trades, closed)
	return m
}

// AverageHoldingPeriod estimates the average number of days disposals were held, using the
// earliest buy of the same ticker made on or before each disposal.
func AverageHoldingPeriod(trades []Trade, closed []ClosedTrade) float64 {
	first := make(map[string]date.Date)
	for _, t := range trades {
		if d, ok := first[t.Ticker]; t.Direction == Buy && (!ok || t.Date.Before(d)) {
			first[t.Ticker] = t.Date
		}
	}
	var total, n int
	for _, c := range closed {
		bought, ok := first[c.Ticker]
		if !ok || bought.After(c.Date) {
			continue
		}
		total += c.Date.DaysSince(bought)
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}
