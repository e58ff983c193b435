package renderer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
)

// GainsMarkdown reports the gains realized over r and the unrealized gains of the open positions,
// per ticker. Totals are given per currency.
func GainsMarkdown(res *tradebook.CalculationResult, r date.Range) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Capital Gains Report from %s to %s\n\n", r.From.String(), r.To.String())
	fmt.Fprintf(&b, "Method: %s\n\n", res.Method)

	realized := make(map[string]tradebook.Money)
	for _, c := range res.ClosedTrades {
		if !r.Contains(c.Date) {
			continue
		}
		if m, ok := realized[c.Ticker]; ok {
			realized[c.Ticker] = m.Add(c.RealizedProfit)
		} else {
			realized[c.Ticker] = c.RealizedProfit
		}
	}
	unrealized := make(map[string]tradebook.Money)
	for _, v := range res.Valuations {
		unrealized[v.Ticker] = v.UnrealizedProfit
	}

	var tickers []string
	for t := range realized {
		tickers = append(tickers, t)
	}
	for t := range unrealized {
		if _, ok := realized[t]; !ok {
			tickers = append(tickers, t)
		}
	}
	slices.Sort(tickers)

	fmt.Fprint(&b, "## Gains per Ticker\n\n")
	fmt.Fprintln(&b, "| Ticker | Realized (Period) | Unrealized (at End) |")
	fmt.Fprintln(&b, "|:---|---:|---:|")

	type total struct{ realized, unrealized tradebook.Money }
	totals := make(map[string]total)
	for _, ticker := range tickers {
		rz, ur := realized[ticker], unrealized[ticker]
		fmt.Fprintf(&b, "| %s | %s | %s |\n", ticker, rz.SignedString(), ur.SignedString())

		cur := rz.Currency()
		if cur == "" {
			cur = ur.Currency()
		}
		t, ok := totals[cur]
		if !ok {
			t = total{tradebook.M(0, cur), tradebook.M(0, cur)}
		}
		if rz.Currency() != "" {
			t.realized = t.realized.Add(rz)
		}
		if ur.Currency() != "" {
			t.unrealized = t.unrealized.Add(ur)
		}
		totals[cur] = t
	}
	for _, cur := range sortedKeys(totals) {
		fmt.Fprintf(&b, "| **Total %s** | **%s** | **%s** |\n",
			cur,
			totals[cur].realized.SignedString(),
			totals[cur].unrealized.SignedString(),
		)
	}

	return b.String()
}
