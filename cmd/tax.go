package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook/renderer"
	"github.com/google/subcommands"
)

// taxCmd holds the flags for the 'tax' subcommand.
type taxCmd struct {
	calcFlags
}

func (*taxCmd) Name() string     { return "tax" }
func (*taxCmd) Synopsis() string { return "estimated tax liability of a year" }
func (*taxCmd) Usage() string {
	return `pnl tax [-year <year>] [-residency <code>] [-c <currency>] <report>...

  Splits the sales of the year into tax lots, classifies them as short or long term, and
  estimates the tax due under the residency schedule. Wash sales are flagged.
`
}

func (c *taxCmd) SetFlags(f *flag.FlagSet) { c.calcFlags.register(f) }

func (c *taxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	calc, err := c.run(ctx, f.Args(), true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error calculating: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.TaxMarkdown(calc.result))
	return subcommands.ExitSuccess
}

// harvestCmd holds the flags for the 'harvest' subcommand.
type harvestCmd struct {
	calcFlags
}

func (*harvestCmd) Name() string     { return "harvest" }
func (*harvestCmd) Synopsis() string { return "open positions worth selling at a loss" }
func (*harvestCmd) Usage() string {
	return `pnl harvest [-threshold <amount>] [-price TICKER=PRICE] <report>...

  Lists the priced open positions whose unrealized loss is below the threshold, with the tax
  they would save if realized.
`
}

func (c *harvestCmd) SetFlags(f *flag.FlagSet) { c.calcFlags.register(f) }

func (c *harvestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	calc, err := c.run(ctx, f.Args(), true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error calculating: %v\n", err)
		return subcommands.ExitFailure
	}
	md := renderer.HarvestMarkdown(calc.result.Harvesting)
	if md == "" {
		md = "No harvesting opportunity.\n"
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}

// optimizeCmd holds the flags for the 'optimize' subcommand.
type optimizeCmd struct {
	calcFlags
}

func (*optimizeCmd) Name() string     { return "optimize" }
func (*optimizeCmd) Synopsis() string { return "ranked tax optimization recommendations" }
func (*optimizeCmd) Usage() string {
	return `pnl optimize [-tolerance <level>] [-price TICKER=PRICE] <report>...

  Ranks the tax optimizations allowed by the risk tolerance by estimated savings.
`
}

func (c *optimizeCmd) SetFlags(f *flag.FlagSet) { c.calcFlags.register(f) }

func (c *optimizeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	calc, err := c.run(ctx, f.Args(), true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error calculating: %v\n", err)
		return subcommands.ExitFailure
	}
	md := renderer.RecommendationsMarkdown(calc.result.Recommendations)
	if md == "" {
		md = "No recommendation.\n"
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}
