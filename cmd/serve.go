package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/etnz/tradebook/server"
	"github.com/google/subcommands"
)

// serveCmd holds the flags for the 'serve' subcommand.
type serveCmd struct {
	addr     string
	schedule string
	noFetch  bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the calculation HTTP API" }
func (*serveCmd) Usage() string {
	return `pnl serve [-addr <host:port>] [-schedule <cron>]

  Serves the calculation API until interrupted. Rates and prices are fetched at startup and
  refreshed on the cron schedule.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address, defaults to SERVER_HOST:SERVER_PORT")
	f.StringVar(&c.schedule, "schedule", "", "Refresh cron schedule, defaults to TRADEBOOK_REFRESH_SCHEDULE")
	f.BoolVar(&c.noFetch, "no-fetch", false, "Do not fetch rates and prices at startup")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	if c.addr != "" {
		e.cfg.Server.Addr = c.addr
	}
	schedule := e.cfg.Oracles.RefreshSchedule
	if c.schedule != "" {
		schedule = c.schedule
	}

	srv := server.New(e.cfg, e.store, e.rateOracle(nil), e.priceOracle())
	if !c.noFetch {
		if err := srv.Refresh(ctx); err != nil {
			log.Printf("initial refresh failed: %v", err)
		}
	}
	cr, err := srv.Schedule(ctx, schedule)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer cr.Stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error serving: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
