package tradebook

import (
	"time"

	"github.com/etnz/tradebook/date"
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// day is a helper for test to create a date in 2024.
func day(m time.Month, d int) date.Date { return date.New(2024, m, d) }

// buy is a helper for test to create a USD buy trade.
func buy(on date.Date, ticker string, q, price, fee float64) Trade {
	return NewTrade(on, ticker, Buy, Q(q), USD(price), USD(fee))
}

// sell is a helper for test to create a USD sell trade.
func sell(on date.Date, ticker string, q, price, fee float64) Trade {
	return NewTrade(on, ticker, Sell, Q(q), USD(price), USD(fee))
}

// inCurrency returns the trade with all its amounts in cur.
func inCurrency(t Trade, cur string) Trade {
	t.Price = M(t.Price.Decimal(), cur)
	t.Fee = M(t.Fee.Decimal(), cur)
	t.Amount = M(t.Amount.Decimal(), cur)
	return t
}
