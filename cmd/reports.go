package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/renderer"
	"github.com/google/subcommands"
)

// calculateCmd holds the flags for the 'calculate' subcommand.
type calculateCmd struct {
	calcFlags
	skipClosed    bool
	skipPositions bool
	showSkipped   bool
}

func (*calculateCmd) Name() string     { return "calculate" }
func (*calculateCmd) Synopsis() string { return "full profit and loss report" }
func (*calculateCmd) Usage() string {
	return `pnl calculate [-method <method>] [-d <date>] [-tax] [-price TICKER=PRICE] <report>...

  Matches the trades of the broker reports and displays performance, totals per currency,
  open positions, closed trades and, with -tax, the tax estimate of the year.
`
}

func (c *calculateCmd) SetFlags(f *flag.FlagSet) {
	c.calcFlags.register(f)
	f.BoolVar(&c.skipClosed, "skip-closed", false, "Do not display the closed trades")
	f.BoolVar(&c.skipPositions, "skip-positions", false, "Do not display the open positions")
	f.BoolVar(&c.showSkipped, "skipped", false, "Display the report rows that could not be imported")
}

func (c *calculateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	calc, err := c.run(ctx, f.Args(), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error calculating: %v\n", err)
		return subcommands.ExitFailure
	}
	md := renderer.RenderResult(calc.result, renderer.RenderOptions{
		SkipClosed:    c.skipClosed,
		SkipPositions: c.skipPositions,
		SkipTax:       !c.tax,
	})
	if c.showSkipped {
		md += renderer.SkippedMarkdown(calc.report)
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}

// closedCmd holds the flags for the 'closed' subcommand.
type closedCmd struct {
	calcFlags
	period string
	start  string
}

func (*closedCmd) Name() string     { return "closed" }
func (*closedCmd) Synopsis() string { return "realized profit of every sale" }
func (*closedCmd) Usage() string {
	return `pnl closed [-method <method>] [-period <period> | -s <date>] [-d <date>] <report>...

  Displays the realized profit of every sale. With -period or -s, displays instead the gains
  per ticker realized over the period ending on -d.
`
}

func (c *closedCmd) SetFlags(f *flag.FlagSet) {
	c.calcFlags.register(f)
	f.StringVar(&c.period, "period", "", "Predefined period (day, week, month, quarter, year)")
	f.StringVar(&c.start, "s", "", "Start date of the reporting period. See the user manual for supported date formats.")
}

func (c *closedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.start != "" && c.period != "" {
		fmt.Fprintln(os.Stderr, "-s and -period flags cannot be used together")
		return subcommands.ExitUsageError
	}
	end, err := date.Parse(c.asOf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
		return subcommands.ExitUsageError
	}

	var r *date.Range
	switch {
	case c.start != "":
		start, err := date.Parse(c.start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
			return subcommands.ExitUsageError
		}
		r = &date.Range{From: start, To: end}
	case c.period != "":
		p, err := date.ParsePeriod(c.period)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing period: %v\n", err)
			return subcommands.ExitUsageError
		}
		rg := date.NewRange(end, p)
		r = &rg
	}

	calc, err := c.run(ctx, f.Args(), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error calculating: %v\n", err)
		return subcommands.ExitFailure
	}
	if r != nil {
		printMarkdown(renderer.GainsMarkdown(calc.result, *r))
		return subcommands.ExitSuccess
	}
	md := renderer.ClosedTradesMarkdown(calc.result.ClosedTrades)
	if md == "" {
		md = "No closed trade.\n"
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}

// positionsCmd holds the flags for the 'positions' subcommand.
type positionsCmd struct {
	calcFlags
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "open positions marked to market" }
func (*positionsCmd) Usage() string {
	return `pnl positions [-d <date>] [-price TICKER=PRICE] <report>...

  Displays the open positions with their average cost, market price and unrealized profit.
  Positions without a market price are valued at cost.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) { c.calcFlags.register(f) }

func (c *positionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	calc, err := c.run(ctx, f.Args(), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error calculating: %v\n", err)
		return subcommands.ExitFailure
	}
	md := renderer.PositionsMarkdown(calc.result.Valuations, calc.result.BaseCurrency)
	if md == "" {
		md = "No open position.\n"
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}

// metricsCmd holds the flags for the 'metrics' subcommand.
type metricsCmd struct {
	calcFlags
}

func (*metricsCmd) Name() string     { return "metrics" }
func (*metricsCmd) Synopsis() string { return "performance metrics and totals per currency" }
func (*metricsCmd) Usage() string {
	return `pnl metrics [-method <method>] [-d <date>] <report>...

  Displays the return on investment, annualized return, win rate and the totals per currency.
`
}

func (c *metricsCmd) SetFlags(f *flag.FlagSet) { c.calcFlags.register(f) }

func (c *metricsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	calc, err := c.run(ctx, f.Args(), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error calculating: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderMetrics(calc.result) + renderer.RenderTotals(calc.result))
	return subcommands.ExitSuccess
}

// exportCmd holds the flags for the 'export' subcommand.
type exportCmd struct {
	calcFlags
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the calculation as JSON" }
func (*exportCmd) Usage() string {
	return `pnl export [-o <file>] [-method <method>] [-tax] <report>...

  Writes the complete calculation result as JSON, to stdout by default.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.calcFlags.register(f)
	f.StringVar(&c.output, "o", "", "Output file, stdout when empty")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	calc, err := c.run(ctx, f.Args(), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error calculating: %v\n", err)
		return subcommands.ExitFailure
	}
	data, err := json.MarshalIndent(calc.result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
		return subcommands.ExitFailure
	}
	data = append(data, '\n')
	if c.output == "" {
		stdout.Write(data)
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(c.output, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", c.output, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Successfully exported to %s\n", c.output)
	return subcommands.ExitSuccess
}
