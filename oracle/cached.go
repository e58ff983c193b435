package oracle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/store"
	"github.com/shopspring/decimal"
)

// The cache keys embed the day, so cached values expire every day.

func ratesKey(base string, on date.Date) string { return fmt.Sprintf("rates/%s/%s", base, on) }
func priceKey(ticker string, on date.Date) string {
	return fmt.Sprintf("price/%s/%s", strings.ToUpper(ticker), on)
}

// CachedRates caches the rates of another RateOracle in a store.
type CachedRates struct {
	next  RateOracle
	store store.Store
	today func() date.Date
}

// NewCachedRates returns a RateOracle asking next at most once a day per base currency.
func NewCachedRates(next RateOracle, s store.Store) *CachedRates {
	return &CachedRates{next: next, store: s, today: date.Today}
}

func (c *CachedRates) Rates(ctx context.Context, base string) (tradebook.Rates, error) {
	key := ratesKey(base, c.today())
	var r tradebook.Rates
	err := store.GetJSON(ctx, c.store, key, &r)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("rates cache read err (ignored): %v", err)
	}
	r, err = c.next.Rates(ctx, base)
	if err != nil {
		return tradebook.Rates{}, err
	}
	if err := store.SetJSON(ctx, c.store, key, r); err != nil {
		log.Printf("rates cache write err (ignored): %v", err)
	}
	return r, nil
}

// CachedPrices caches the prices of another PriceOracle in a store.
type CachedPrices struct {
	next  PriceOracle
	store store.Store
	today func() date.Date
}

// NewCachedPrices returns a PriceOracle asking next at most once a day per ticker.
func NewCachedPrices(next PriceOracle, s store.Store) *CachedPrices {
	return &CachedPrices{next: next, store: s, today: date.Today}
}

func (c *CachedPrices) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	key := priceKey(ticker, c.today())
	var p decimal.Decimal
	err := store.GetJSON(ctx, c.store, key, &p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("price cache read err (ignored): %v", err)
	}
	p, err = c.next.Price(ctx, ticker)
	if err != nil {
		return decimal.Zero, err
	}
	if err := store.SetJSON(ctx, c.store, key, p); err != nil {
		log.Printf("price cache write err (ignored): %v", err)
	}
	return p, nil
}
