package renderer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/tradebook"
	md "github.com/nao1215/markdown"
)

// TaxMarkdown renders the estimated tax liability, the tax lots of the year and the wash sale
// warnings. Without tax settings only the wash sales are rendered.
func TaxMarkdown(res *tradebook.CalculationResult) string {
	var b strings.Builder

	if t := res.Tax; t != nil {
		fmt.Fprintf(&b, "## Tax %d (%s)\n\n", t.Year, t.Residency)
		fmt.Fprintln(&b, "| | Amount |")
		fmt.Fprintln(&b, "|:---|---:|")
		fmt.Fprintf(&b, "| Short-Term Gains | %s |\n", t.ShortTermGains.SignedString())
		fmt.Fprintf(&b, "| Long-Term Gains | %s |\n", t.LongTermGains.SignedString())
		fmt.Fprintf(&b, "| Dividend Income | %s |\n", t.DividendIncome.String())
		fmt.Fprintf(&b, "| Harvested Losses | %s |\n", t.HarvestedLosses.String())
		fmt.Fprintf(&b, "| **Estimated Tax** | **%s** |\n", t.EstimatedTax.String())
		fmt.Fprintf(&b, "| Effective Rate | %s |\n\n", t.EffectiveRate.String())

		ConditionalBlock(&b, func(w io.Writer) bool {
			fmt.Fprint(w, "### Tax Lots\n\n")
			fmt.Fprintln(w, "| Ticker | Quantity | Acquired | Disposed | Days | Cost | Proceeds | Gain | Term |")
			fmt.Fprintln(w, "|:---|---:|:---|:---|---:|---:|---:|---:|:---|")
			n := 0
			for _, l := range res.TaxLots {
				if l.DispositionDate.Year() != t.Year {
					continue
				}
				acquired := l.AcquisitionDate.String()
				if l.Unmatched {
					acquired = "unmatched"
				}
				fmt.Fprintf(w, "| %s | %s | %s | %s | %d | %s | %s | %s | %s |\n",
					l.Ticker,
					l.Quantity,
					acquired,
					l.DispositionDate,
					l.HoldingPeriodDays,
					l.AcquisitionCost,
					l.Proceeds,
					l.Gain.SignedString(),
					l.Treatment,
				)
				n++
			}
			fmt.Fprintln(w)
			return n > 0
		})
	}

	b.WriteString(WashSalesMarkdown(res.WashSales))
	return b.String()
}

// WashSalesMarkdown renders the losses that a repurchase may disallow.
func WashSalesMarkdown(warnings []tradebook.WashSaleWarning) string {
	if len(warnings) == 0 {
		return ""
	}
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H3("Wash Sales")
	table := md.TableSet{
		Header: []string{"Ticker", "Sold", "Bought Back", "Days", "Loss", "Disallowed"},
		Rows:   [][]string{},
	}
	for _, w := range warnings {
		table.Rows = append(table.Rows, []string{
			w.Ticker,
			w.SaleDate.String(),
			w.RepurchaseDate.String(),
			fmt.Sprint(w.DaysAfterSale),
			w.Loss.String(),
			w.DisallowedLoss.String(),
		})
	}
	writeTable(doc, table)
	return doc.String()
}

// HarvestMarkdown renders the positions worth selling at a loss.
func HarvestMarkdown(opportunities []tradebook.HarvestingOpportunity) string {
	if len(opportunities) == 0 {
		return ""
	}
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Harvesting Opportunities")
	table := md.TableSet{
		Header: []string{"Ticker", "Quantity", "Avg Cost", "Price", "Term", "Loss", "Risk", "Savings"},
		Rows:   [][]string{},
	}
	for _, o := range opportunities {
		table.Rows = append(table.Rows, []string{
			o.Ticker,
			o.Quantity.String(),
			o.AverageCost.String(),
			o.Price.String(),
			o.Treatment.String(),
			o.UnrealizedLoss.SignedString(),
			o.Risk.String(),
			o.EstimatedSavings.String(),
		})
	}
	writeTable(doc, table)
	return doc.String()
}

// RecommendationsMarkdown renders the ranked tax optimizations as a numbered list.
func RecommendationsMarkdown(recs []tradebook.Recommendation) string {
	if len(recs) == 0 {
		return ""
	}
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Recommendations")
	items := make([]string, 0, len(recs))
	for _, r := range recs {
		items = append(items, fmt.Sprintf("%s %s (%s risk, saves %s)", md.Bold(r.Kind.String()), r.Description, r.Risk, r.EstimatedSavings))
	}
	doc.OrderedList(items...)
	return doc.String()
}
