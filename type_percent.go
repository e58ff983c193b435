package tradebook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a ratio expressed in percent (12.5 means 12.5%).
type Percent float64

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", p)
	if res == "+0.00%" {
		return "-"
	}
	return res
}

// Rate is a ratio as a fraction (0.25 means 25%), used for tax rates.
type Rate float64

// rateExponent is the precision of rates, it absorbs float errors like 0.3-0.1.
const rateExponent = -10

// Decimal returns the rate rounded to 10 decimals.
func (r Rate) Decimal() decimal.Decimal {
	return decimal.NewFromFloatWithExponent(float64(r), rateExponent)
}

// Percent returns the rate expressed in percent.
func (r Rate) Percent() Percent { return Percent(r * 100) }

func (r Rate) String() string { return r.Percent().String() }
