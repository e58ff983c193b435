// Package oracle resolves exchange rates and market prices.
//
// Oracles are the only part of tradebook that does I/O while calculating: they are queried
// before a calculation and the resolved maps are handed to the calculator.
package oracle

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrNoPrice is returned when an oracle has no price for a ticker.
var ErrNoPrice = errors.New("no price")

// RateOracle returns exchange rates relative to a base currency.
type RateOracle interface {
	Rates(ctx context.Context, base string) (tradebook.Rates, error)
}

// PriceOracle returns the latest market price of a ticker.
type PriceOracle interface {
	Price(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// StaticRates is a RateOracle with fixed rates, relative to any base.
type StaticRates map[string]decimal.Decimal

// Rates returns the rates rebased on base when base is part of the table.
func (s StaticRates) Rates(_ context.Context, base string) (tradebook.Rates, error) {
	r := tradebook.NewRates(base)
	div := decimal.NewFromInt(1)
	if b, ok := s[base]; ok && b.IsPositive() {
		div = b
	}
	for cur, v := range s {
		if cur == base || !v.IsPositive() {
			continue
		}
		r.Rates[cur] = v.Div(div)
	}
	return r, nil
}

// StaticPrices is a PriceOracle with fixed prices.
type StaticPrices map[string]decimal.Decimal

func (s StaticPrices) Price(_ context.Context, ticker string) (decimal.Decimal, error) {
	p, ok := s[strings.ToUpper(ticker)]
	if !ok {
		return decimal.Zero, ErrNoPrice
	}
	return p, nil
}

// PriceFunc adapts a function to a PriceOracle.
type PriceFunc func(ctx context.Context, ticker string) (decimal.Decimal, error)

func (f PriceFunc) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	return f(ctx, ticker)
}

// Chain returns a PriceOracle asking each oracle in turn until one has a price.
func Chain(oracles ...PriceOracle) PriceOracle {
	return PriceFunc(func(ctx context.Context, ticker string) (decimal.Decimal, error) {
		for _, o := range oracles {
			p, err := o.Price(ctx, ticker)
			if err == nil {
				return p, nil
			}
			if !errors.Is(err, ErrNoPrice) {
				log.Printf("price of %s: %v", ticker, err)
			}
		}
		return decimal.Zero, ErrNoPrice
	})
}

// DefaultLimit bounds the number of concurrent price requests.
const DefaultLimit = 8

// ResolvePrices asks o for the price of every ticker concurrently.
//
// Tickers without a price are left out of the result, their positions are valued at cost.
// Any other failure cancels the resolution.
func ResolvePrices(ctx context.Context, o PriceOracle, tickers []string, limit int) (map[string]decimal.Decimal, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	prices := make(map[string]decimal.Decimal, len(tickers))
	for _, ticker := range tickers {
		g.Go(func() error {
			p, err := o.Price(ctx, ticker)
			if errors.Is(err, ErrNoPrice) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			prices[ticker] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prices, nil
}

// rebase returns rates for base out of rates expressed in another base.
func rebase(r tradebook.Rates, base string) tradebook.Rates {
	if r.Base == base {
		return r
	}
	out := tradebook.Rates{Base: base, Date: r.Date, Rates: make(map[string]decimal.Decimal, len(r.Rates))}
	div := r.Rate(base)
	out.Rates[r.Base] = decimal.NewFromInt(1).Div(div)
	for cur, v := range r.Rates {
		if cur == base {
			continue
		}
		out.Rates[cur] = v.Div(div)
	}
	if out.Date.IsZero() {
		out.Date = date.Today()
	}
	return out
}
