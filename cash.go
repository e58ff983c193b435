package tradebook

// CurrencyTotals are the profit figures of a single currency.
type CurrencyTotals struct {
	RealizedProfit Money `json:"realizedProfit"`
	FeesPaid       Money `json:"feesPaid"`
	Dividends      Money `json:"dividends"`
	NetProfit      Money `json:"netProfit"`
}

// Recompute derives NetProfit from the other totals. It is never accumulated.
func (t *CurrencyTotals) Recompute() {
	t.NetProfit = t.RealizedProfit.Sub(t.FeesPaid).Add(t.Dividends)
}

// Aggregator accumulates cash balances and totals per currency.
//
// Its zero value is not usable, use NewAggregator.
type Aggregator struct {
	cash   map[string]Money
	totals map[string]*CurrencyTotals
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		cash:   make(map[string]Money),
		totals: make(map[string]*CurrencyTotals),
	}
}

// ensure initializes the currency to zero the first time it is seen.
func (a *Aggregator) ensure(cur string) *CurrencyTotals {
	t, ok := a.totals[cur]
	if !ok {
		zero := M(0, cur)
		t = &CurrencyTotals{RealizedProfit: zero, FeesPaid: zero, Dividends: zero, NetProfit: zero}
		a.totals[cur] = t
		a.cash[cur] = zero
	}
	return t
}

func (a *Aggregator) move(amount Money) {
	a.ensure(amount.Currency())
	a.cash[amount.Currency()] = a.cash[amount.Currency()].Add(amount)
}

// Trade books the cash effect of a trade.
func (a *Aggregator) Trade(t Trade) {
	if t.Direction == Buy {
		a.move(t.Settled().Add(t.Fee).Neg())
		return
	}
	a.move(t.Settled().Sub(t.Fee))
}

// Closed books the realized profit of a closed trade.
func (a *Aggregator) Closed(c ClosedTrade) {
	t := a.ensure(c.Currency())
	t.RealizedProfit = t.RealizedProfit.Add(c.RealizedProfit)
}

// Fee books a standalone fee, tax or commission.
func (a *Aggregator) Fee(f FeeRecord) {
	t := a.ensure(f.Amount.Currency())
	t.FeesPaid = t.FeesPaid.Add(f.Amount)
	a.move(f.Amount.Neg())
}

// Dividend books a dividend.
func (a *Aggregator) Dividend(d Dividend) {
	t := a.ensure(d.Amount.Currency())
	t.Dividends = t.Dividends.Add(d.Amount)
	a.move(d.Amount)
}

// Cash books a deposit or a withdrawal.
func (a *Aggregator) Cash(c CashTransaction) {
	if c.Kind == Withdrawal {
		a.move(c.Amount.Neg())
		return
	}
	a.move(c.Amount)
}

// Totals returns a copy of the totals per currency with their net profit recomputed.
func (a *Aggregator) Totals() map[string]CurrencyTotals {
	res := make(map[string]CurrencyTotals, len(a.totals))
	for cur, t := range a.totals {
		c := *t
		c.Recompute()
		res[cur] = c
	}
	return res
}

// Balances returns a copy of the cash balances per currency.
func (a *Aggregator) Balances() map[string]Money {
	res := make(map[string]Money, len(a.cash))
	for cur, m := range a.cash {
		res[cur] = m
	}
	return res
}
