package tradebook

import (
	"github.com/etnz/tradebook/date"
)

// ClosedTrade is the realized result of a single sell trade.
type ClosedTrade struct {
	Ticker         string
	Date           date.Date
	Quantity       Quantity
	SellPrice      Money
	SellFees       Money
	CostBasis      Money
	SaleProceeds   Money // SellPrice*Quantity - SellFees
	RealizedProfit Money // SaleProceeds - CostBasis
	Method         CostBasisMethod
	// UnmatchedQuantity is the part of the sale no open lot could cover, it carries no cost basis.
	UnmatchedQuantity Quantity
}

// Currency of the closed trade.
func (c ClosedTrade) Currency() string { return c.SellPrice.Currency() }

// IsOversold reports whether the sale exceeded the quantity held.
func (c ClosedTrade) IsOversold() bool { return c.UnmatchedQuantity.IsPositive() }

func (c ClosedTrade) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("ticker", c.Ticker)
	w.Append("date", c.Date)
	w.Append("quantity", c.Quantity)
	w.Append("sellPrice", c.SellPrice.exact())
	w.Append("sellFees", c.SellFees)
	w.Append("costBasis", c.CostBasis)
	w.Append("saleProceeds", c.SaleProceeds)
	w.Append("realizedProfit", c.RealizedProfit)
	w.Append("method", c.Method)
	if c.IsOversold() {
		w.Append("unmatchedQuantity", c.UnmatchedQuantity)
	}
	return w.MarshalJSON()
}

// Ledger matches the trades of a single ticker under a cost basis method.
//
// Trades must be applied in chronological order.
type Ledger struct {
	Ticker string
	Method CostBasisMethod
	open   Lots
	closed []ClosedTrade
}

// NewLedger returns an empty ledger for ticker.
func NewLedger(ticker string, method CostBasisMethod) *Ledger {
	return &Ledger{Ticker: ticker, Method: method}
}

// Apply processes a trade. For a sell it returns the resulting closed trade.
func (l *Ledger) Apply(t Trade) (ClosedTrade, bool) {
	if t.Direction == Buy {
		// the list is replaced, never appended in place, so that previous Open() results stay valid.
		open := make(Lots, 0, len(l.open)+1)
		l.open = append(append(open, l.open...), newLot(t))
		return ClosedTrade{}, false
	}

	m := l.open.sell(l.Method, t.Quantity)
	l.open = m.Remaining

	proceeds := t.Gross().Sub(t.Fee)
	costBasis := M(0, t.Currency()).Add(m.CostBasis)
	c := ClosedTrade{
		Ticker:            l.Ticker,
		Date:              t.Date,
		Quantity:          t.Quantity,
		SellPrice:         t.Price,
		SellFees:          t.Fee,
		CostBasis:         costBasis,
		SaleProceeds:      proceeds,
		RealizedProfit:    proceeds.Sub(costBasis),
		Method:            l.Method,
		UnmatchedQuantity: m.Unmatched,
	}
	l.closed = append(l.closed, c)
	return c, true
}

// Open returns the lots currently held.
func (l *Ledger) Open() Lots { return l.open }

// Closed returns all the closed trades so far.
func (l *Ledger) Closed() []ClosedTrade { return l.closed }

// Match runs a ledger over the chronologically sorted trades of one ticker.
func Match(ticker string, method CostBasisMethod, trades []Trade) ([]ClosedTrade, Lots) {
	l := NewLedger(ticker, method)
	for _, t := range trades {
		l.Apply(t)
	}
	return l.Closed(), l.Open()
}

// OpenPositions maps a ticker to its open lots.
type OpenPositions map[string]Lots

// Tickers returns the tickers with open lots, sorted.
func (p OpenPositions) Tickers() []string { return sortedKeys(p) }

// FromImported builds open positions out of a broker position report.
func FromImported(imported []ImportedLot) OpenPositions {
	p := make(OpenPositions)
	for _, i := range imported {
		p[i.Ticker] = append(p[i.Ticker], Lot{
			Date:     i.Date,
			Ticker:   i.Ticker,
			Quantity: i.Quantity,
			Cost:     i.UnitCost.Mul(i.Quantity),
			Price:    i.UnitCost,
			Fees:     M(0, i.UnitCost.Currency()),
		})
	}
	return p
}

// TotalRealizedProfit sums the realized profit of closed trades, per currency.
func TotalRealizedProfit(closed []ClosedTrade) map[string]Money {
	totals := make(map[string]Money)
	for _, c := range closed {
		totals[c.Currency()] = M(0, c.Currency()).Add(totals[c.Currency()]).Add(c.RealizedProfit)
	}
	return totals
}
