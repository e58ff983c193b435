// Package normalize turns raw broker report rows into tradebook records.
//
// Broker exports name the same column in many ways, every field is therefore looked up
// through a prioritized list of candidate headers. Rows that cannot be used are skipped
// and reported, never fatal.
package normalize

import (
	"strings"
)

// Row is a raw report row, keyed by column header.
type Row map[string]string

// canonical returns the normalized form of a header.
func canonical(header string) string {
	header = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	return strings.Join(strings.FieldsFunc(header, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '.' || r == '/'
	}), " ")
}

// index returns a copy of the row with canonical headers.
func (r Row) index() Row {
	idx := make(Row, len(r))
	for k, v := range r {
		idx[canonical(k)] = strings.TrimSpace(v)
	}
	return idx
}

// first returns the value of the first candidate header present with a non empty value.
// The row must have been indexed.
func (r Row) first(candidates ...string) string {
	for _, c := range candidates {
		if v := r[canonical(c)]; v != "" {
			return v
		}
	}
	return ""
}

// has reports whether any of the candidates is a header of the row, even with an empty value.
func (r Row) has(candidates ...string) bool {
	for _, c := range candidates {
		if _, ok := r[canonical(c)]; ok {
			return true
		}
	}
	return false
}

// Candidate headers, most specific first.
var (
	dateHeaders        = []string{"Date", "Trade Date", "Execution Date", "Transaction Date", "Order Date", "Datetime", "Time", "Data"}
	tickerHeaders      = []string{"Ticker", "Symbol", "Instrument", "Security", "Asset", "Product", "Stock"}
	directionHeaders   = []string{"Direction", "Side", "Buy/Sell", "Action", "Operation", "Type", "Transaction Type"}
	quantityHeaders    = []string{"Quantity", "Qty", "Shares", "Units", "Amount of shares", "Volume", "Quantidade"}
	priceHeaders       = []string{"Price", "Unit Price", "Execution Price", "Trade Price", "Price per share", "Preço"}
	amountHeaders      = []string{"Amount", "Sum", "Total", "Value", "Net Amount", "Gross Amount", "Montante"}
	feeHeaders         = []string{"Fee", "Fees", "Commission", "Commissions", "Brokerage", "Transaction costs"}
	currencyHeaders    = []string{"Currency", "Ccy", "Curr", "Settlement Currency", "Moeda"}
	commentHeaders     = []string{"Comment", "Description", "Details", "Note", "Memo"}
	costHeaders        = []string{"Average Price", "Avg Price", "Average Cost", "Unit Cost", "Cost Price", "Open Price", "Cost basis per share"}
	openQuantityHeader = []string{"Position", "Open Quantity", "Quantity", "Qty", "Shares", "Units"}
)
