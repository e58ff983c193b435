package normalize

import (
	"fmt"
	"strings"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a row carries no currency column.
const DefaultCurrency = "USD"

// Skip describes a row that could not be turned into a record.
type Skip struct {
	Row    int    `json:"row"` // 1-based index of the data row
	Reason string `json:"reason"`
}

// Report summarizes a normalization.
type Report struct {
	Rows    int    `json:"rows"`
	Skipped []Skip `json:"skipped,omitempty"`
}

func (r *Report) skip(row int, format string, args ...any) {
	r.Skipped = append(r.Skipped, Skip{Row: row, Reason: fmt.Sprintf(format, args...)})
}

// Merge appends the report o to r.
func (r *Report) Merge(o Report) {
	offset := r.Rows
	r.Rows += o.Rows
	for _, s := range o.Skipped {
		r.Skipped = append(r.Skipped, Skip{Row: s.Row + offset, Reason: s.Reason})
	}
}

func (r Report) String() string {
	return fmt.Sprintf("%d rows, %d skipped", r.Rows, len(r.Skipped))
}

// Option configures Normalize.
type Option func(*options)

type options struct {
	currency string
}

// WithCurrency sets the currency of rows that have no currency column.
func WithCurrency(cur string) Option {
	return func(o *options) {
		if cur != "" {
			o.currency = strings.ToUpper(cur)
		}
	}
}

// Normalize converts report rows into records.
//
// Each row is recognized by its headers: a position report row has an average cost, a trade
// row has a quantity and a price, any other row with an amount is a fee, dividend or cash
// movement classified by its label. Rows that cannot be used are listed in the report.
func Normalize(rows []Row, opts ...Option) (tradebook.Records, Report) {
	o := options{currency: DefaultCurrency}
	for _, opt := range opts {
		opt(&o)
	}

	var records tradebook.Records
	report := Report{Rows: len(rows)}
	for i, raw := range rows {
		n := i + 1
		row := raw.index()
		var err error
		switch {
		case row.has(costHeaders...):
			var lot tradebook.ImportedLot
			if lot, err = position(row, o); err == nil {
				records.Imported = append(records.Imported, lot)
			}
		case row.has(quantityHeaders...) && row.has(priceHeaders...):
			var trade tradebook.Trade
			if trade, err = tradeOf(row, o); err == nil {
				records.Trades = append(records.Trades, trade)
			}
		case row.has(amountHeaders...):
			err = entry(row, o, &records)
		default:
			err = fmt.Errorf("unrecognized row")
		}
		if err != nil {
			report.skip(n, "%v", err)
		}
	}
	return records, report
}

func currencyOf(row Row, o options) string {
	if c := row.first(currencyHeaders...); c != "" {
		return strings.ToUpper(c)
	}
	return o.currency
}

// tradeOf reads a trade row. Quantity, fee and amount are taken as absolute values, brokers
// sign them by cash flow.
func tradeOf(row Row, o options) (tradebook.Trade, error) {
	cur := currencyOf(row, o)
	ticker := strings.ToUpper(row.first(tickerHeaders...))
	if ticker == "" {
		return tradebook.Trade{}, fmt.Errorf("missing ticker")
	}
	q, err := number(row.first(quantityHeaders...))
	if err != nil {
		return tradebook.Trade{}, fmt.Errorf("quantity: %w", err)
	}
	price, err := number(row.first(priceHeaders...))
	if err != nil {
		return tradebook.Trade{}, fmt.Errorf("price: %w", err)
	}
	fee, err := number(row.first(feeHeaders...))
	if err != nil {
		return tradebook.Trade{}, fmt.Errorf("fee: %w", err)
	}
	amount, err := number(row.first(amountHeaders...))
	if err != nil {
		return tradebook.Trade{}, fmt.Errorf("amount: %w", err)
	}
	q = q.Abs()

	on := date.ParseOrToday(row.first(dateHeaders...))
	dir := tradebook.ParseDirection(row.first(directionHeaders...))
	t := tradebook.NewTrade(on, ticker, dir, tradebook.Q(q), tradebook.M(price, cur), tradebook.M(fee.Abs(), cur))
	if !amount.IsZero() {
		t.Amount = tradebook.M(amount.Abs(), cur)
	}
	if err := t.Validate(); err != nil {
		return tradebook.Trade{}, err
	}
	return t, nil
}

// position reads a broker position report row.
func position(row Row, o options) (tradebook.ImportedLot, error) {
	cur := currencyOf(row, o)
	ticker := strings.ToUpper(row.first(tickerHeaders...))
	if ticker == "" {
		return tradebook.ImportedLot{}, fmt.Errorf("missing ticker")
	}
	q, err := number(row.first(openQuantityHeader...))
	if err != nil {
		return tradebook.ImportedLot{}, fmt.Errorf("quantity: %w", err)
	}
	if !q.IsPositive() {
		return tradebook.ImportedLot{}, fmt.Errorf("quantity must be positive, got %v", q)
	}
	cost, err := number(row.first(costHeaders...))
	if err != nil {
		return tradebook.ImportedLot{}, fmt.Errorf("cost: %w", err)
	}
	if cost.IsNegative() {
		return tradebook.ImportedLot{}, fmt.Errorf("cost must not be negative, got %v", cost)
	}
	return tradebook.ImportedLot{
		Ticker:   ticker,
		Date:     date.ParseOrToday(row.first(dateHeaders...)),
		Quantity: tradebook.Q(q),
		UnitCost: tradebook.M(cost, cur),
	}, nil
}

// entry reads a fee, dividend or cash movement row and appends it to records.
func entry(row Row, o options, records *tradebook.Records) error {
	cur := currencyOf(row, o)
	amount, err := ParseNumber(row.first(amountHeaders...))
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	if amount.IsZero() {
		return fmt.Errorf("zero amount")
	}
	on := date.ParseOrToday(row.first(dateHeaders...))
	label := row.first(directionHeaders...)
	comment := row.first(commentHeaders...)
	ticker := strings.ToUpper(row.first(tickerHeaders...))
	value := tradebook.M(amount.Abs(), cur)
	description := strings.TrimSpace(strings.Join([]string{label, comment}, " "))

	switch kind := classify(label+" "+comment, amount); kind {
	case dividendEntry:
		records.Dividends = append(records.Dividends, tradebook.Dividend{Date: on, Ticker: ticker, Amount: value})
	case taxEntry, commissionEntry, feeEntry:
		records.Fees = append(records.Fees, tradebook.FeeRecord{
			Date:        on,
			Ticker:      ticker,
			Category:    kind.category(),
			Description: description,
			Amount:      value,
		})
	case depositEntry, withdrawalEntry:
		k := tradebook.Deposit
		if kind == withdrawalEntry {
			k = tradebook.Withdrawal
		}
		records.Cash = append(records.Cash, tradebook.CashTransaction{Date: on, Kind: k, Amount: value, Description: description})
	default:
		return fmt.Errorf("unclassified entry %q", description)
	}
	return nil
}

type entryKind int

const (
	unknownEntry entryKind = iota
	dividendEntry
	taxEntry
	commissionEntry
	feeEntry
	depositEntry
	withdrawalEntry
)

func (k entryKind) category() tradebook.FeeCategory {
	switch k {
	case taxEntry:
		return tradebook.Tax
	case commissionEntry:
		return tradebook.Commission
	default:
		return tradebook.Fee
	}
}

// classify guesses the kind of a ledger entry from its label and the sign of its amount.
func classify(label string, amount decimal.Decimal) entryKind {
	l := strings.ToLower(label)
	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(l, w) {
				return true
			}
		}
		return false
	}
	switch {
	case contains("dividend", "coupon", "distribution"):
		if amount.IsNegative() {
			// withholding on a dividend.
			return taxEntry
		}
		return dividendEntry
	case contains("tax", "withholding"):
		return taxEntry
	case contains("commission"):
		return commissionEntry
	case contains("fee", "charge", "custody"):
		return feeEntry
	case contains("deposit", "transfer", "withdraw", "payout", "top up", "top-up", "wire"):
		if amount.IsNegative() {
			return withdrawalEntry
		}
		return depositEntry
	case amount.IsNegative():
		// unlabelled costs are fees.
		return feeEntry
	}
	return unknownEntry
}
