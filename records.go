package tradebook

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/tradebook/date"
)

// Direction of a trade.
type Direction int

const (
	Buy Direction = iota
	Sell
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "unknown"
	}
}

// ParseDirection reads a broker direction label. Anything containing "buy" is a Buy, anything else a Sell.
func ParseDirection(s string) Direction {
	if strings.Contains(strings.ToLower(s), "buy") {
		return Buy
	}
	return Sell
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(text []byte) error {
	*d = ParseDirection(string(text))
	return nil
}

// Trade is a single normalized buy or sell execution.
type Trade struct {
	Date      date.Date `json:"date"`
	Ticker    string    `json:"ticker"`
	Direction Direction `json:"direction"`
	Quantity  Quantity  `json:"quantity"` // always positive
	Price     Money     `json:"price"`    // unit price, always positive
	Fee       Money     `json:"fee"`      // always positive or zero
	Amount    Money     `json:"amount"`   // gross amount, Price*Quantity unless the broker reported otherwise
}

// NewTrade returns a Trade with its amount computed from price and quantity.
func NewTrade(on date.Date, ticker string, dir Direction, quantity Quantity, price, fee Money) Trade {
	return Trade{
		Date:      on,
		Ticker:    ticker,
		Direction: dir,
		Quantity:  quantity,
		Price:     price,
		Fee:       fee,
		Amount:    price.Mul(quantity),
	}
}

// Currency returns the currency the trade is settled in.
func (t Trade) Currency() string { return t.Price.Currency() }

// Gross returns price times quantity, the basis of lot costs and sale proceeds.
func (t Trade) Gross() Money { return t.Price.Mul(t.Quantity) }

// Settled returns the amount of cash exchanged before fees: the broker reported amount when
// there is one, Gross otherwise.
func (t Trade) Settled() Money {
	if t.Amount.Currency() == "" && t.Amount.IsZero() {
		return t.Gross()
	}
	return t.Amount
}

// Validate reports why a trade cannot be used in a ledger.
func (t Trade) Validate() error {
	switch {
	case t.Ticker == "":
		return fmt.Errorf("missing ticker")
	case !t.Quantity.IsPositive():
		return fmt.Errorf("quantity must be positive, got %v", t.Quantity)
	case !t.Price.IsPositive():
		return fmt.Errorf("price must be positive, got %v", t.Price.Decimal())
	case t.Fee.IsNegative():
		return fmt.Errorf("fee must not be negative, got %v", t.Fee.Decimal())
	case t.Fee.Currency() != "" && t.Fee.Currency() != t.Currency(),
		t.Amount.Currency() != "" && t.Amount.Currency() != t.Currency():
		return fmt.Errorf("amount and fee must be in %s", t.Currency())
	}
	return nil
}

// FeeCategory classifies a standalone fee record.
type FeeCategory int

const (
	Fee FeeCategory = iota
	Tax
	Commission
)

func (c FeeCategory) String() string {
	switch c {
	case Fee:
		return "fee"
	case Tax:
		return "tax"
	case Commission:
		return "commission"
	default:
		return "unknown"
	}
}

func (c FeeCategory) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *FeeCategory) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "fee":
		*c = Fee
	case "tax":
		*c = Tax
	case "commission":
		*c = Commission
	default:
		return fmt.Errorf("unknown fee category %q", text)
	}
	return nil
}

// FeeRecord is a fee, tax or commission charged outside of a trade.
type FeeRecord struct {
	Date        date.Date   `json:"date"`
	Ticker      string      `json:"ticker,omitempty"`
	Category    FeeCategory `json:"category"`
	Description string      `json:"description,omitempty"`
	Amount      Money       `json:"amount"` // always positive
}

// Dividend is a cash distribution received for a ticker.
type Dividend struct {
	Date   date.Date `json:"date"`
	Ticker string    `json:"ticker,omitempty"`
	Amount Money     `json:"amount"`
}

// CashKind is the kind of a cash transaction.
type CashKind int

const (
	Deposit CashKind = iota
	Withdrawal
)

func (k CashKind) String() string {
	switch k {
	case Deposit:
		return "deposit"
	case Withdrawal:
		return "withdrawal"
	default:
		return "unknown"
	}
}

func (k CashKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *CashKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "deposit":
		*k = Deposit
	case "withdrawal":
		*k = Withdrawal
	default:
		return fmt.Errorf("unknown cash transaction kind %q", text)
	}
	return nil
}

// CashTransaction moves cash in or out of the account.
type CashTransaction struct {
	Date        date.Date `json:"date"`
	Kind        CashKind  `json:"kind"`
	Amount      Money     `json:"amount"` // always positive, Kind gives the direction
	Description string    `json:"description,omitempty"`
}

// ImportedLot is an open lot as reported by a broker position report.
type ImportedLot struct {
	Ticker   string    `json:"ticker"`
	Date     date.Date `json:"date"`
	Quantity Quantity  `json:"quantity"`
	UnitCost Money     `json:"unitCost"`
}

// Records is the normalized input of a calculation.
type Records struct {
	Trades    []Trade           `json:"trades,omitempty"`
	Fees      []FeeRecord       `json:"fees,omitempty"`
	Dividends []Dividend        `json:"dividends,omitempty"`
	Cash      []CashTransaction `json:"cash,omitempty"`
	// Imported, when not empty, replaces the computed open positions for valuation.
	Imported []ImportedLot `json:"imported,omitempty"`
}

// Append adds all the records of o to r.
func (r *Records) Append(o Records) {
	r.Trades = append(r.Trades, o.Trades...)
	r.Fees = append(r.Fees, o.Fees...)
	r.Dividends = append(r.Dividends, o.Dividends...)
	r.Cash = append(r.Cash, o.Cash...)
	r.Imported = append(r.Imported, o.Imported...)
}

// Tickers returns the sorted list of tickers traded or held.
func (r Records) Tickers() []string {
	var tickers []string
	for _, t := range r.Trades {
		if t.Ticker != "" {
			tickers = append(tickers, t.Ticker)
		}
	}
	for _, l := range r.Imported {
		tickers = append(tickers, l.Ticker)
	}
	slices.Sort(tickers)
	return slices.Compact(tickers)
}

// sortedTrades returns a copy of trades sorted by date, same-day trades keep their input order.
func sortedTrades(trades []Trade) []Trade {
	sorted := slices.Clone(trades)
	slices.SortStableFunc(sorted, func(a, b Trade) int { return a.Date.Compare(b.Date) })
	return sorted
}

// byTicker groups sorted trades by ticker, preserving their order.
func byTicker(trades []Trade) map[string][]Trade {
	m := make(map[string][]Trade)
	for _, t := range trades {
		m[t.Ticker] = append(m[t.Ticker], t)
	}
	return m
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
