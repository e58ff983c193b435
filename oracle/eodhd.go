package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// EODHDBaseURL is the root of the EODHD API.
const EODHDBaseURL = "https://eodhd.com/api"

// EODHD reads end of day prices and forex rates from eodhd.com.
//
// It is both a PriceOracle and a RateOracle.
type EODHD struct {
	APIKey string
	// Exchange is appended to tickers without one, "US" by default.
	Exchange string
	// Currencies are the currencies for which Rates are fetched.
	Currencies []string
	// BaseURL defaults to EODHDBaseURL.
	BaseURL string
	// Lookback is the number of days searched backward for the latest close.
	Lookback int

	f fetcher
}

// NewEODHD returns an EODHD oracle.
func NewEODHD(apiKey string, currencies []string, client *http.Client, limiter *rate.Limiter) *EODHD {
	return &EODHD{APIKey: apiKey, Exchange: "US", Currencies: currencies, BaseURL: EODHDBaseURL, Lookback: 10, f: newFetcher(client, limiter)}
}

// symbol returns the eodhd ticker in the format "SYMBOL.EXCHANGECODE".
func (e *EODHD) symbol(ticker string) string {
	if strings.Contains(ticker, ".") || e.Exchange == "" {
		return ticker
	}
	return ticker + "." + e.Exchange
}

// lastClose returns the latest close of an eodhd ticker within the lookback window.
func (e *EODHD) lastClose(ctx context.Context, ticker string) (decimal.Decimal, error) {
	// https://eodhd.com/api/eod/MCD.US?api_token=demo&fmt=json&from=2024-02-01&to=2024-02-13
	// [
	//	{
	//		"date": "2024-02-13",
	//		"open": 675.066,
	//		"close": 668.445,
	//		...
	//	},
	to := date.Today()
	from := to.Add(-e.Lookback)
	addr := fmt.Sprintf("%s/eod/%s?fmt=json&api_token=%s&from=%s&to=%s", e.BaseURL, url.PathEscape(ticker), url.QueryEscape(e.APIKey), from, to)

	type Info struct {
		Date  date.Date       `json:"date"`
		Close decimal.Decimal `json:"close"`
	}
	content := make([]Info, 0)
	if err := e.f.jwget(ctx, addr, &content); err != nil {
		return decimal.Zero, err
	}
	var last Info
	for _, info := range content {
		if !info.Date.Before(last.Date) {
			last = info
		}
	}
	if !last.Close.IsPositive() {
		return decimal.Zero, ErrNoPrice
	}
	return last.Close, nil
}

func (e *EODHD) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	p, err := e.lastClose(ctx, e.symbol(ticker))
	if err != nil {
		return decimal.Zero, fmt.Errorf("eodhd price of %s: %w", ticker, err)
	}
	return p, nil
}

// Rates fetches the forex pairs base/cur for every configured currency.
func (e *EODHD) Rates(ctx context.Context, base string) (tradebook.Rates, error) {
	r := tradebook.NewRates(base)
	g, ctx := errgroup.WithContext(ctx)
	results := make([]decimal.Decimal, len(e.Currencies))
	for i, cur := range e.Currencies {
		if cur == base {
			continue
		}
		g.Go(func() error {
			// The ticker for forex is in the format "fromCurrency+toCurrency.FOREX".
			p, err := e.lastClose(ctx, fmt.Sprintf("%s%s.FOREX", base, cur))
			if err != nil {
				return fmt.Errorf("eodhd rate %s/%s: %w", base, cur, err)
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return tradebook.Rates{}, err
	}
	for i, cur := range e.Currencies {
		if results[i].IsPositive() {
			r.Rates[cur] = results[i]
		}
	}
	return r, nil
}
