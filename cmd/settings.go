package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/renderer"
	"github.com/etnz/tradebook/store"
	"github.com/google/subcommands"
)

// prefsCmd holds the flags for the 'prefs' subcommand.
type prefsCmd struct {
	method    string
	residency string
	currency  string
	tolerance string
	reset     bool
}

func (*prefsCmd) Name() string     { return "prefs" }
func (*prefsCmd) Synopsis() string { return "show or change the default settings" }
func (*prefsCmd) Usage() string {
	return `pnl prefs [-method <method>] [-residency <code>] [-c <currency>] [-tolerance <level>] [-reset]

  Without flags, displays the saved preferences. With flags, changes them.
`
}

func (c *prefsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.method, "method", "", "Default cost basis method (fifo, avg)")
	f.StringVar(&c.residency, "residency", "", "Default tax residency ("+strings.Join(tradebook.Residencies(), ", ")+")")
	f.StringVar(&c.currency, "c", "", "Default tax reporting currency")
	f.StringVar(&c.tolerance, "tolerance", "", "Default risk tolerance (conservative, moderate, aggressive)")
	f.BoolVar(&c.reset, "reset", false, "Restore the default preferences")
}

func (c *prefsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	p, err := store.LoadPreferences(ctx, e.store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading preferences: %v\n", err)
		return subcommands.ExitFailure
	}
	changed, err := c.apply(&p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if changed {
		if err := store.SavePreferences(ctx, e.store, p); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving preferences: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	fmt.Fprintf(stdout, "method: %s\nresidency: %s\ncurrency: %s\ntolerance: %s\n", p.Method, p.Residency, p.Currency, p.Tolerance)
	return subcommands.ExitSuccess
}

// apply sets the flags on p and reports whether anything changed.
func (c *prefsCmd) apply(p *store.Preferences) (bool, error) {
	changed := false
	if c.reset {
		*p = store.DefaultPreferences()
		changed = true
	}
	if c.method != "" {
		m, err := tradebook.ParseCostBasisMethod(c.method)
		if err != nil {
			return false, err
		}
		p.Method, changed = m, true
	}
	if c.residency != "" {
		r := strings.ToUpper(c.residency)
		if _, err := tradebook.ScheduleOf(r); err != nil {
			return false, err
		}
		p.Residency, changed = r, true
	}
	if c.currency != "" {
		p.Currency, changed = strings.ToUpper(c.currency), true
	}
	if c.tolerance != "" {
		t, err := tradebook.ParseRiskTolerance(c.tolerance)
		if err != nil {
			return false, err
		}
		p.Tolerance, changed = t, true
	}
	return changed, nil
}

// historyCmd holds the flags for the 'history' subcommand.
type historyCmd struct {
	clear bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "recently calculated tickers" }
func (*historyCmd) Usage() string {
	return `pnl history [-clear]

  Displays the tickers of the recent calculations, most recent first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.clear, "clear", false, "Forget the history")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	if c.clear {
		if err := store.ClearHistory(ctx, e.store); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing history: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	h, err := store.History(ctx, e.store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.HistoryMarkdown(h))
	return subcommands.ExitSuccess
}
