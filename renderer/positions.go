package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/tradebook"
	md "github.com/nao1215/markdown"
)

// PositionsMarkdown renders the open positions marked to market. Value is in base.
func PositionsMarkdown(valuations []tradebook.PositionValuation, base string) string {
	if len(valuations) == 0 {
		return ""
	}
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Open Positions")

	table := md.TableSet{
		Header: []string{"Ticker", "Quantity", "Avg Cost", "Price", "Market Value", "Unrealized", "%", fmt.Sprintf("Value (%s)", base)},
		Rows:   [][]string{},
	}
	unpriced := false
	for _, v := range valuations {
		price := v.Price.String()
		if !v.HasPrice {
			price = "n/a"
			unpriced = true
		}
		table.Rows = append(table.Rows, []string{
			v.Ticker,
			v.Quantity.String(),
			v.AverageCost.String(),
			price,
			v.MarketValue.String(),
			v.UnrealizedProfit.SignedString(),
			v.UnrealizedPercent.SignedString(),
			v.Value.String(),
		})
	}
	writeTable(doc, table)
	if unpriced {
		doc.PlainText(md.Italic("Positions without a price are valued at cost."))
	}
	return doc.String()
}

// ClosedTradesMarkdown renders the realized result of every sale.
func ClosedTradesMarkdown(closed []tradebook.ClosedTrade) string {
	if len(closed) == 0 {
		return ""
	}
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Closed Trades")

	table := md.TableSet{
		Header: []string{"Date", "Ticker", "Quantity", "Proceeds", "Cost Basis", "Fees", "Realized"},
		Rows:   [][]string{},
	}
	oversold := false
	for _, c := range closed {
		q := c.Quantity.String()
		if c.IsOversold() {
			q += " (" + c.UnmatchedQuantity.String() + " unmatched)"
			oversold = true
		}
		table.Rows = append(table.Rows, []string{
			c.Date.String(),
			c.Ticker,
			q,
			c.SaleProceeds.String(),
			c.CostBasis.String(),
			c.SellFees.String(),
			c.RealizedProfit.SignedString(),
		})
	}
	writeTable(doc, table)
	if oversold {
		doc.PlainText(md.Bold("Warning:") + " some sales exceed the quantity held, the unmatched part carries no cost basis.")
	}
	return doc.String()
}
