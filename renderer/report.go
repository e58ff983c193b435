package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/normalize"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"
)

// SkippedMarkdown renders the rows the normalizer could not use.
func SkippedMarkdown(r normalize.Report) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Import")
	doc.PlainText(fmt.Sprintf("%d rows read, %d skipped.", r.Rows, len(r.Skipped)))
	if len(r.Skipped) == 0 {
		return doc.String()
	}
	table := md.TableSet{
		Header: []string{"Row", "Reason"},
		Rows:   [][]string{},
	}
	for _, s := range r.Skipped {
		table.Rows = append(table.Rows, []string{fmt.Sprint(s.Row), s.Reason})
	}
	writeTable(doc, table)
	return doc.String()
}

// RatesMarkdown renders exchange rates as units of each currency per unit of the base.
func RatesMarkdown(r tradebook.Rates) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	if r.Date.IsZero() {
		doc.H1(fmt.Sprintf("Rates for 1 %s", r.Base))
	} else {
		doc.H1(fmt.Sprintf("Rates for 1 %s on %s", r.Base, r.Date))
	}
	table := md.TableSet{
		Header: []string{"Currency", "Rate"},
		Rows:   [][]string{},
	}
	for _, cur := range sortedKeys(r.Rates) {
		table.Rows = append(table.Rows, []string{cur, r.Rates[cur].String()})
	}
	writeTable(doc, table)
	return doc.String()
}

// PricesMarkdown renders market prices per ticker. Tickers without a price are listed as n/a.
func PricesMarkdown(tickers []string, prices map[string]decimal.Decimal) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Prices")
	table := md.TableSet{
		Header: []string{"Ticker", "Price"},
		Rows:   [][]string{},
	}
	for _, t := range tickers {
		p, ok := prices[t]
		v := "n/a"
		if ok {
			v = p.String()
		}
		table.Rows = append(table.Rows, []string{t, v})
	}
	writeTable(doc, table)
	return doc.String()
}

// HistoryMarkdown renders the recently calculated tickers, most recent first.
func HistoryMarkdown(tickers []string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("History")
	if len(tickers) == 0 {
		doc.PlainText("No ticker calculated yet.")
		return doc.String()
	}
	doc.BulletList(tickers...)
	return doc.String()
}
