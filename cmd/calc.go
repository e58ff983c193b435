package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/normalize"
	"github.com/etnz/tradebook/oracle"
	"github.com/etnz/tradebook/store"
	"github.com/shopspring/decimal"
)

// priceFlag collects "TICKER=PRICE" market price overrides.
type priceFlag map[string]decimal.Decimal

func (p priceFlag) String() string {
	var parts []string
	for _, t := range sortedKeys(p) {
		parts = append(parts, t+"="+p[t].String())
	}
	return strings.Join(parts, ",")
}

func (p priceFlag) Set(v string) error {
	for _, kv := range strings.Split(v, ",") {
		ticker, price, ok := strings.Cut(kv, "=")
		if !ok || ticker == "" {
			return fmt.Errorf("invalid price %q, want TICKER=PRICE", kv)
		}
		d, err := normalize.ParseNumber(price)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", kv, err)
		}
		p[strings.ToUpper(strings.TrimSpace(ticker))] = d
	}
	return nil
}

// calcFlags are the flags shared by every command running a calculation.
type calcFlags struct {
	method    string
	asOf      string
	tax       bool
	year      int
	residency string
	currency  string
	tolerance string
	threshold float64
	offline   bool
	prices    priceFlag
}

func (c *calcFlags) register(f *flag.FlagSet) {
	c.prices = make(priceFlag)
	f.StringVar(&c.method, "method", "", "Cost basis method (fifo, avg). Defaults to the saved preferences.")
	f.StringVar(&c.asOf, "d", date.Today().String(), "Valuation date. See the user manual for supported date formats.")
	f.BoolVar(&c.tax, "tax", false, "Estimate the tax liability")
	f.IntVar(&c.year, "year", 0, "Tax year, defaults to the year of the valuation date")
	f.StringVar(&c.residency, "residency", "", "Tax residency ("+strings.Join(tradebook.Residencies(), ", ")+"). Defaults to the saved preferences.")
	f.StringVar(&c.currency, "c", "", "Tax reporting currency. Defaults to the saved preferences.")
	f.StringVar(&c.tolerance, "tolerance", "", "Risk tolerance (conservative, moderate, aggressive). Defaults to the saved preferences.")
	f.Float64Var(&c.threshold, "threshold", -100, "Unrealized loss, in the reporting currency, under which a position is worth harvesting")
	f.BoolVar(&c.offline, "offline", false, "Do not query the rate and price oracles")
	f.Var(c.prices, "price", "Market price override TICKER=PRICE, can be repeated")
}

// calculation is the outcome of a command calculation.
type calculation struct {
	result *tradebook.CalculationResult
	report normalize.Report
}

// run loads the records of paths and calculates them. Taxes are estimated when taxed is set
// or the -tax flag is.
func (c *calcFlags) run(ctx context.Context, paths []string, taxed bool) (*calculation, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no report file given")
	}
	e, err := openEnv(ctx)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	records, report, err := loadRecords(paths)
	if err != nil {
		return nil, err
	}

	prefs, err := store.LoadPreferences(ctx, e.store)
	if err != nil {
		return nil, fmt.Errorf("reading preferences: %w", err)
	}
	method := prefs.Method
	if c.method != "" {
		if method, err = tradebook.ParseCostBasisMethod(c.method); err != nil {
			return nil, err
		}
	}
	on, err := date.Parse(c.asOf)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", c.asOf, err)
	}

	var settings *tradebook.TaxSettings
	if taxed || c.tax {
		s, err := c.settings(prefs, on)
		if err != nil {
			return nil, err
		}
		settings = &s
	}

	tickers := records.Tickers()
	rates, prices := tradebook.NewRates(e.cfg.BaseCurrency), map[string]decimal.Decimal{}
	if !c.offline {
		rates = c.fetchRates(ctx, e, records)
		prices = c.fetchPrices(ctx, e, tickers)
	}
	for t, p := range c.prices {
		prices[t] = p
	}

	res, err := tradebook.NewCalculator(records,
		tradebook.AsOf(on),
		tradebook.WithRates(rates),
		tradebook.WithPrices(prices),
	).Calculate(method, settings)
	if err != nil {
		return nil, err
	}
	if err := store.AddHistory(ctx, e.store, tickers...); err != nil {
		log.Printf("cannot record history: %v", err)
	}
	return &calculation{result: res, report: report}, nil
}

// settings returns the tax settings from the preferences overridden by the flags.
func (c *calcFlags) settings(prefs store.Preferences, on date.Date) (tradebook.TaxSettings, error) {
	s := prefs.TaxSettings()
	s.Year = on.Year()
	if c.year != 0 {
		s.Year = c.year
	}
	if c.residency != "" {
		s.Residency = strings.ToUpper(c.residency)
	}
	if _, err := tradebook.ScheduleOf(s.Residency); err != nil {
		return s, err
	}
	if c.currency != "" {
		s.Currency = strings.ToUpper(c.currency)
	}
	if c.tolerance != "" {
		tol, err := tradebook.ParseRiskTolerance(c.tolerance)
		if err != nil {
			return s, err
		}
		s.Tolerance = tol
	}
	s.HarvestThreshold = c.threshold
	return s, nil
}

// fetchRates asks the rate oracle for the base currency rates. Without an oracle, or when it
// fails, every conversion is the identity.
func (c *calcFlags) fetchRates(ctx context.Context, e *env, records tradebook.Records) tradebook.Rates {
	base := e.cfg.BaseCurrency
	ro := e.rateOracle(currencies(records))
	if ro == nil {
		return tradebook.NewRates(base)
	}
	r, err := ro.Rates(ctx, base)
	if err != nil {
		log.Printf("rates unavailable, amounts are not converted: %v", err)
		return tradebook.NewRates(base)
	}
	return r
}

// fetchPrices resolves the market prices of tickers, except the overridden ones.
func (c *calcFlags) fetchPrices(ctx context.Context, e *env, tickers []string) map[string]decimal.Decimal {
	po := e.priceOracle()
	var missing []string
	for _, t := range tickers {
		if _, ok := c.prices[t]; !ok {
			missing = append(missing, t)
		}
	}
	if po == nil || len(missing) == 0 {
		return map[string]decimal.Decimal{}
	}
	p, err := oracle.ResolvePrices(ctx, po, missing, 0)
	if err != nil {
		log.Printf("prices unavailable, positions valued at cost: %v", err)
		return map[string]decimal.Decimal{}
	}
	return p
}

// currencies returns the currencies traded in records.
func currencies(records tradebook.Records) []string {
	var res []string
	for _, t := range records.Trades {
		res = append(res, t.Currency())
	}
	slices.Sort(res)
	return slices.Compact(res)
}

// loadRecords reads broker reports. JSON files hold tradebook.Records, any other file is a CSV
// report normalized with the default currency.
func loadRecords(paths []string) (tradebook.Records, normalize.Report, error) {
	var records tradebook.Records
	var report normalize.Report
	for _, path := range paths {
		if strings.EqualFold(filepath.Ext(path), ".json") {
			data, err := os.ReadFile(path)
			if err != nil {
				return records, report, tradebook.WrapError("load "+path, err)
			}
			var r tradebook.Records
			if err := json.Unmarshal(data, &r); err != nil {
				return records, report, tradebook.WrapError("load "+path, err)
			}
			records.Append(r)
			continue
		}
		r, rep, err := normalize.LoadFile(path, normalize.WithCurrency(*defaultCurrency))
		if err != nil {
			return records, report, err
		}
		records.Append(r)
		report.Merge(rep)
	}
	for _, skip := range report.Skipped {
		log.Printf("skipped row %d: %s", skip.Row, skip.Reason)
	}
	if n := len(report.Skipped); n > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d of %d rows skipped\n", n, report.Rows)
	}
	return records, report, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
