package tradebook

import (
	"fmt"

	"github.com/etnz/tradebook/date"
	"github.com/google/uuid"
)

// LongTermDays is the minimum holding period, in days, for a long term disposal.
const LongTermDays = 365

// TaxTreatment classifies a disposal by holding period.
type TaxTreatment int

const (
	ShortTerm TaxTreatment = iota
	LongTerm
)

// Treatment returns the treatment of a disposal held for days.
func Treatment(days int) TaxTreatment {
	if days >= LongTermDays {
		return LongTerm
	}
	return ShortTerm
}

func (t TaxTreatment) String() string {
	switch t {
	case ShortTerm:
		return "short_term"
	case LongTerm:
		return "long_term"
	default:
		return "unknown"
	}
}

func (t TaxTreatment) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// taxLotSpace namespaces tax lot identifiers.
var taxLotSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/etnz/tradebook/taxlot"))

// TaxLot is the disposal of a single acquisition lot, or part of it.
type TaxLot struct {
	ID                string       `json:"id"`
	Ticker            string       `json:"ticker"`
	Quantity          Quantity     `json:"quantity"`
	AcquisitionDate   date.Date    `json:"acquisitionDate"`
	AcquisitionPrice  Money        `json:"acquisitionPrice"` // unit cost, fees included
	AcquisitionCost   Money        `json:"acquisitionCost"`
	DispositionDate   date.Date    `json:"dispositionDate"`
	DispositionPrice  Money        `json:"dispositionPrice"`
	Proceeds          Money        `json:"proceeds"` // net of the pro-rated sell fees
	Gain              Money        `json:"gain"`
	HoldingPeriodDays int          `json:"holdingPeriodDays"`
	Treatment         TaxTreatment `json:"taxTreatment"`
	// Unmatched is set for the part of an over-sell no acquisition could cover.
	Unmatched bool `json:"unmatched,omitempty"`
}

// Currency of the tax lot.
func (l TaxLot) Currency() string { return l.Proceeds.Currency() }

// IsLoss reports whether the disposal realized a loss.
func (l TaxLot) IsLoss() bool { return l.Gain.IsNegative() }

// BuildTaxLots walks all the trades with FIFO matching and emits one tax lot per consumed acquisition.
//
// Trades may be in any order, they are sorted by date first. The result is sorted by ticker then date.
func BuildTaxLots(trades []Trade) []TaxLot {
	grouped := byTicker(sortedTrades(trades))
	var res []TaxLot
	for _, ticker := range sortedKeys(grouped) {
		res = append(res, tickerTaxLots(ticker, grouped[ticker])...)
	}
	return res
}

// tickerTaxLots matches the sorted trades of a single ticker.
func tickerTaxLots(ticker string, trades []Trade) []TaxLot {
	var (
		open Lots
		res  []TaxLot
	)
	for _, t := range trades {
		if t.Direction == Buy {
			open = append(open[:len(open):len(open)], newLot(t))
			continue
		}
		m := open.sell(FIFO, t.Quantity)
		open = m.Remaining
		pieces := m.Consumed
		if m.Unmatched.IsPositive() {
			pieces = append(pieces[:len(pieces):len(pieces)], Lot{Date: t.Date, Ticker: ticker, Quantity: m.Unmatched, Cost: M(0, t.Currency())})
		}
		// the last piece takes the remainder so that the pieces add up exactly to the trade.
		gross, fee := t.Gross(), t.Fee
		for i, c := range pieces {
			g, f := gross, fee
			if i < len(pieces)-1 {
				g = t.Gross().Mul(c.Quantity).Div(t.Quantity)
				f = t.Fee.Mul(c.Quantity).Div(t.Quantity)
			}
			gross, fee = gross.Sub(g), fee.Sub(f)
			unmatched := m.Unmatched.IsPositive() && i == len(pieces)-1
			res = append(res, newTaxLot(t, c, g, f, len(res), unmatched))
		}
	}
	return res
}

// newTaxLot builds the tax lot of the part c of an acquisition disposed by sell t for gross minus fee.
func newTaxLot(t Trade, c Lot, gross, fee Money, seq int, unmatched bool) TaxLot {
	proceeds := gross.Sub(fee)
	cost := M(0, t.Currency()).Add(c.Cost)
	days := t.Date.DaysSince(c.Date)
	key := fmt.Sprintf("%s|%s|%s|%s|%d", t.Ticker, c.Date, t.Date, c.Quantity, seq)
	return TaxLot{
		ID:                uuid.NewSHA1(taxLotSpace, []byte(key)).String(),
		Ticker:            t.Ticker,
		Quantity:          c.Quantity,
		AcquisitionDate:   c.Date,
		AcquisitionPrice:  c.UnitCost().exact(),
		AcquisitionCost:   cost,
		DispositionDate:   t.Date,
		DispositionPrice:  t.Price.exact(),
		Proceeds:          proceeds,
		Gain:              proceeds.Sub(cost),
		HoldingPeriodDays: days,
		Treatment:         Treatment(days),
		Unmatched:         unmatched,
	}
}
