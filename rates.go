package tradebook

import (
	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
)

// Rates are exchange rates relative to a base currency.
//
// Rates[cur] is the number of units of cur worth one unit of Base.
type Rates struct {
	Base  string                     `json:"base"`
	Date  date.Date                  `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// NewRates returns an empty rate table, every conversion is then the identity.
func NewRates(base string) Rates {
	return Rates{Base: base, Date: date.Today(), Rates: make(map[string]decimal.Decimal)}
}

// Rate returns the rate of cur, 1 when unknown.
func (r Rates) Rate(cur string) decimal.Decimal {
	if cur == r.Base {
		return decimal.NewFromInt(1)
	}
	rate, ok := r.Rates[cur]
	if !ok || !rate.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return rate
}

// Convert returns m in the base currency. Missing rates fall back to 1.
func (r Rates) Convert(m Money) Money {
	return r.ConvertTo(m, r.Base)
}

// ConvertTo returns m in currency cur, crossing through the base currency.
func (r Rates) ConvertTo(m Money, cur string) Money {
	if m.Currency() == cur {
		return m
	}
	base := m.In(r.Base, r.Rate(m.Currency()))
	if cur == r.Base {
		return base
	}
	return Money{value: base.value.Mul(r.Rate(cur)), cur: cur}
}

// Sum converts all amounts to cur and adds them up.
func (r Rates) Sum(cur string, amounts ...Money) Money {
	total := M(0, cur)
	for _, m := range amounts {
		total = total.Add(r.ConvertTo(m, cur))
	}
	return total
}
