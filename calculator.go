package tradebook

import (
	"fmt"
	"runtime"

	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// CalculationResult is the complete outcome of a calculation.
//
// It is a snapshot: nothing in it refers back to the calculator, it can be persisted or exported as is.
type CalculationResult struct {
	Method       CostBasisMethod `json:"method"`
	AsOf         date.Date       `json:"asOf"`
	BaseCurrency string          `json:"baseCurrency"`

	ClosedTrades  []ClosedTrade `json:"closedTrades"`
	OpenPositions OpenPositions `json:"openPositions"`
	// Imported is true when OpenPositions come from a broker position report.
	Imported   bool                `json:"imported,omitempty"`
	Valuations []PositionValuation `json:"valuations"`

	Totals map[string]CurrencyTotals `json:"totals"`
	Cash   map[string]Money          `json:"cash"`

	TaxLots         []TaxLot                `json:"taxLots"`
	WashSales       []WashSaleWarning       `json:"washSales,omitempty"`
	TaxSettings     *TaxSettings            `json:"taxSettings,omitempty"`
	Tax             *TaxCalculation         `json:"tax,omitempty"`
	Harvesting      []HarvestingOpportunity `json:"harvesting,omitempty"`
	Recommendations []Recommendation        `json:"recommendations,omitempty"`

	Metrics Metrics `json:"metrics"`
}

// Calculator computes results out of a fixed set of records.
type Calculator struct {
	records  Records
	rates    Rates
	prices   map[string]decimal.Decimal
	on       date.Date
	parallel int
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithRates sets the exchange rates used for conversions to the base currency.
func WithRates(r Rates) Option { return func(c *Calculator) { c.rates = r } }

// WithPrices sets the market prices used to value open positions.
func WithPrices(p map[string]decimal.Decimal) Option { return func(c *Calculator) { c.prices = p } }

// AsOf sets the valuation date, today by default.
func AsOf(on date.Date) Option { return func(c *Calculator) { c.on = on } }

// WithParallelism bounds the number of tickers matched concurrently.
func WithParallelism(n int) Option { return func(c *Calculator) { c.parallel = n } }

// NewCalculator returns a Calculator over records.
//
// Records that cannot be used (missing ticker, non positive quantity or price) are ignored.
func NewCalculator(records Records, opts ...Option) *Calculator {
	c := &Calculator{
		rates:    NewRates("USD"),
		prices:   map[string]decimal.Decimal{},
		on:       date.Today(),
		parallel: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.records = records
	c.records.Trades = nil
	for _, t := range records.Trades {
		if t.Validate() == nil {
			c.records.Trades = append(c.records.Trades, t)
		}
	}
	c.records.Trades = sortedTrades(c.records.Trades)
	return c
}

// Records returns the records used by the calculator, trades sorted by date.
func (c *Calculator) Records() Records { return c.records }

// Calculate runs the full calculation with method. Tax settings are optional, without them
// only tax lots and wash sales are computed.
func (c *Calculator) Calculate(method CostBasisMethod, settings *TaxSettings) (*CalculationResult, error) {
	if method != FIFO && method != AverageCost {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, method)
	}
	grouped := byTicker(c.records.Trades)
	tickers := sortedKeys(grouped)
	for _, ticker := range tickers {
		if err := sameCurrency(ticker, grouped[ticker]); err != nil {
			return nil, err
		}
	}
	if err := sameImportedCurrency(c.records.Imported); err != nil {
		return nil, err
	}

	// ledgers share no state, each writes its own slot.
	type outcome struct {
		closed []ClosedTrade
		open   Lots
	}
	outcomes := make([]outcome, len(tickers))
	var g errgroup.Group
	g.SetLimit(max(1, c.parallel))
	for i, ticker := range tickers {
		g.Go(func() error {
			closed, open := Match(ticker, method, grouped[ticker])
			outcomes[i] = outcome{closed, open}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &CalculationResult{
		Method:        method,
		AsOf:          c.on,
		BaseCurrency:  c.rates.Base,
		OpenPositions: make(OpenPositions),
	}
	agg := NewAggregator()
	for i, ticker := range tickers {
		res.ClosedTrades = append(res.ClosedTrades, outcomes[i].closed...)
		if len(outcomes[i].open) > 0 {
			res.OpenPositions[ticker] = outcomes[i].open
		}
	}
	for _, t := range c.records.Trades {
		agg.Trade(t)
	}
	for _, ct := range res.ClosedTrades {
		agg.Closed(ct)
	}
	for _, f := range c.records.Fees {
		agg.Fee(f)
	}
	for _, d := range c.records.Dividends {
		agg.Dividend(d)
	}
	for _, t := range c.records.Cash {
		agg.Cash(t)
	}
	res.Totals = agg.Totals()
	res.Cash = agg.Balances()

	valued := res.OpenPositions
	if len(c.records.Imported) > 0 {
		valued = FromImported(c.records.Imported)
		res.OpenPositions = valued
		res.Imported = true
	}
	res.Valuations = Valuate(valued, c.prices, c.rates, c.on)

	res.TaxLots = BuildTaxLots(c.records.Trades)
	res.WashSales = DetectWashSales(res.TaxLots, c.records.Trades)

	if settings != nil {
		if err := c.tax(res, *settings); err != nil {
			return nil, err
		}
	}
	res.Metrics = ComputeMetrics(c.records, res.ClosedTrades, res.Valuations, res.Totals, c.rates, c.on)
	return res, nil
}

// tax fills the tax part of the result.
func (c *Calculator) tax(res *CalculationResult, settings TaxSettings) error {
	schedule, err := settings.schedule()
	if err != nil {
		return err
	}
	if settings.Currency == "" {
		settings.Currency = c.rates.Base
	}
	calc := CalculateTaxLiability(settings.Year, settings.Residency, schedule, res.TaxLots, c.records.Dividends, c.rates, settings.Currency)
	res.TaxSettings = &settings
	res.Tax = &calc
	res.Harvesting = IdentifyHarvestingOpportunities(res.Valuations, settings.HarvestThreshold, schedule, c.rates, settings.Currency)
	res.Recommendations = Optimize(OptimizationInput{
		Settings:      settings,
		Schedule:      schedule,
		Tax:           calc,
		Harvesting:    res.Harvesting,
		OpenPositions: res.OpenPositions,
		Prices:        c.prices,
		Dividends:     c.records.Dividends,
		Rates:         c.rates,
		AsOf:          c.on,
	})
	return nil
}

// sameImportedCurrency checks that the imported lots of a ticker share one currency.
func sameImportedCurrency(imported []ImportedLot) error {
	seen := make(map[string]string)
	for _, l := range imported {
		cur, ok := seen[l.Ticker]
		if !ok {
			seen[l.Ticker] = l.UnitCost.Currency()
			continue
		}
		if cur != l.UnitCost.Currency() {
			return fmt.Errorf("%w: imported %s in %s and %s", ErrMixedCurrency, l.Ticker, cur, l.UnitCost.Currency())
		}
	}
	return nil
}

// sameCurrency checks that all the trades of a ticker share one currency.
func sameCurrency(ticker string, trades []Trade) error {
	for _, t := range trades[1:] {
		if t.Currency() != trades[0].Currency() {
			return fmt.Errorf("%w: %s in %s and %s", ErrMixedCurrency, ticker, trades[0].Currency(), t.Currency())
		}
	}
	return nil
}
