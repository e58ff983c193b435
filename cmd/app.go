// Package cmd implements the pnl command line application.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/etnz/tradebook/config"
	"github.com/etnz/tradebook/normalize"
	"github.com/etnz/tradebook/oracle"
	"github.com/etnz/tradebook/store"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&calculateCmd{}, "reports")
	c.Register(&closedCmd{}, "reports")
	c.Register(&positionsCmd{}, "reports")
	c.Register(&metricsCmd{}, "reports")
	c.Register(&exportCmd{}, "reports")

	c.Register(&taxCmd{}, "taxes")
	c.Register(&harvestCmd{}, "taxes")
	c.Register(&optimizeCmd{}, "taxes")

	c.Register(&ratesCmd{}, "market data")
	c.Register(&pricesCmd{}, "market data")

	c.Register(&prefsCmd{}, "settings")
	c.Register(&historyCmd{}, "settings")

	c.Register(&serveCmd{}, "server")
	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	baseCurrency    = flag.String("base", "", "Base currency of valuations and metrics. Overrides TRADEBOOK_BASE_CURRENCY.")
	storeKind       = flag.String("store", "", "Store backend (memory, file, sqlite, dynamo). Overrides TRADEBOOK_STORE.")
	defaultCurrency = flag.String("default-currency", normalize.DefaultCurrency, "Currency of the report rows that do not name one")
	raw             = flag.Bool("raw", false, "Print markdown as is, without terminal rendering")
	// Verbose enables the detailed logs.
	Verbose = flag.Bool("v", false, "verbose logging")
)

// stdout receives the reports.
var stdout io.Writer = os.Stdout

// env is the configured environment a command runs in.
type env struct {
	cfg   *config.Config
	store store.Store
	close func() error
}

// openEnv loads the configuration, applies the global flags and opens the store.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if *baseCurrency != "" {
		cfg.BaseCurrency = strings.ToUpper(*baseCurrency)
	}
	if *storeKind != "" {
		cfg.Store.Kind = store.Kind(*storeKind)
	}
	s, closer, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Kind, err)
	}
	if *Verbose {
		log.Printf("using %s store at %q", cfg.Store.Kind, cfg.Store.Path)
	}
	return &env{cfg: cfg, store: s, close: closer}, nil
}

// Close releases the store.
func (e *env) Close() {
	if err := e.close(); err != nil {
		log.Printf("closing store: %v", err)
	}
}

// rateOracle returns the configured rate oracle, nil when none is.
// A local rates file takes precedence over EODHD, then over a JSON endpoint.
// EODHD only fetches the rates of currencies.
func (e *env) rateOracle(currencies []string) oracle.RateOracle {
	o := e.cfg.Oracles
	var ro oracle.RateOracle
	switch {
	case o.RatesPath != "":
		return oracle.FileRates{Path: o.RatesPath}
	case o.EODHDKey != "":
		ro = oracle.NewEODHD(o.EODHDKey, currencies, nil, nil)
	case o.RatesURL != "":
		ro = oracle.NewJSONRates(o.RatesURL, "", nil, nil)
	default:
		return nil
	}
	return oracle.NewCachedRates(ro, e.store)
}

// priceOracle returns the configured price oracles chained, nil when none is.
func (e *env) priceOracle() oracle.PriceOracle {
	o := e.cfg.Oracles
	var chain []oracle.PriceOracle
	if o.AlpacaKey != "" {
		chain = append(chain, oracle.NewAlpaca(o.AlpacaKey, o.AlpacaSecret))
	}
	if o.EODHDKey != "" {
		chain = append(chain, oracle.NewEODHD(o.EODHDKey, nil, nil, nil))
	}
	if len(chain) == 0 {
		return nil
	}
	return oracle.NewCachedPrices(oracle.Chain(chain...), e.store)
}
