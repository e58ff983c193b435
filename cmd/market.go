package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/tradebook/oracle"
	"github.com/etnz/tradebook/renderer"
	"github.com/etnz/tradebook/store"
	"github.com/google/subcommands"
)

// ratesCmd holds the flags for the 'rates' subcommand.
type ratesCmd struct {
	currencies string
}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "exchange rates of the base currency" }
func (*ratesCmd) Usage() string {
	return `pnl [-base <currency>] rates [-currencies USD,EUR]

  Fetches the exchange rates of the base currency from the configured rate oracle, or from
  open.er-api.com when none is configured. Rates are cached for the day.
`
}

func (c *ratesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currencies, "currencies", "", "Comma separated currencies to display, all by default")
}

func (c *ratesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	var wanted []string
	if c.currencies != "" {
		wanted = strings.Split(strings.ToUpper(c.currencies), ",")
	}
	ro := e.rateOracle(wanted)
	if ro == nil {
		ro = oracle.NewCachedRates(oracle.NewJSONRates(oracle.DefaultRatesURL, "", nil, nil), e.store)
	}
	r, err := ro.Rates(ctx, e.cfg.BaseCurrency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching rates: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(wanted) > 0 {
		for cur := range r.Rates {
			if !contains(wanted, cur) {
				delete(r.Rates, cur)
			}
		}
	}
	printMarkdown(renderer.RatesMarkdown(r))
	return subcommands.ExitSuccess
}

// pricesCmd holds the flags for the 'prices' subcommand.
type pricesCmd struct{}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "latest market prices" }
func (*pricesCmd) Usage() string {
	return `pnl prices [<ticker>...]

  Fetches the latest market price of the tickers, or of the tickers in the history when none
  is given, from the configured price oracles (Alpaca, EODHD).
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	po := e.priceOracle()
	if po == nil {
		fmt.Fprintln(os.Stderr, "no price oracle configured, set ALPACA_API_KEY or EODHD_API_KEY")
		return subcommands.ExitFailure
	}

	tickers := make([]string, 0, f.NArg())
	for _, t := range f.Args() {
		tickers = append(tickers, strings.ToUpper(t))
	}
	if len(tickers) == 0 {
		if tickers, err = store.History(ctx, e.store); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	prices, err := oracle.ResolvePrices(ctx, po, tickers, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching prices: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.PricesMarkdown(tickers, prices))
	return subcommands.ExitSuccess
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if strings.TrimSpace(l) == s {
			return true
		}
	}
	return false
}
