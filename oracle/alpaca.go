package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// QuoteClient is the subset of the Alpaca market data client used by Alpaca.
type QuoteClient interface {
	GetLatestQuotes(symbols []string, req marketdata.GetLatestQuoteRequest) (map[string]marketdata.Quote, error)
}

// Alpaca reads the latest quotes of US stocks from the Alpaca market data API.
type Alpaca struct {
	client QuoteClient
}

// NewAlpaca returns an Alpaca oracle authenticated with the given keys.
func NewAlpaca(apiKey, apiSecret string) *Alpaca {
	return NewAlpacaWithClient(marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}))
}

// NewAlpacaWithClient returns an Alpaca oracle on top of client.
func NewAlpacaWithClient(client QuoteClient) *Alpaca { return &Alpaca{client: client} }

// Prices returns the mid quote of every ticker that has one.
func (a *Alpaca) Prices(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbols := make([]string, len(tickers))
	for i, t := range tickers {
		symbols[i] = strings.ToUpper(t)
	}
	quotes, err := a.client.GetLatestQuotes(symbols, marketdata.GetLatestQuoteRequest{
		Feed: marketdata.IEX,
	})
	if err != nil {
		return nil, fmt.Errorf("error getting latest quotes: %w", err)
	}

	prices := make(map[string]decimal.Decimal)
	for ticker, quote := range quotes {
		switch {
		case quote.AskPrice > 0 && quote.BidPrice > 0:
			prices[ticker] = decimal.NewFromFloat(quote.AskPrice).Add(decimal.NewFromFloat(quote.BidPrice)).Div(decimal.NewFromInt(2))
		case quote.AskPrice > 0:
			prices[ticker] = decimal.NewFromFloat(quote.AskPrice)
		case quote.BidPrice > 0:
			prices[ticker] = decimal.NewFromFloat(quote.BidPrice)
		}
	}
	return prices, nil
}

func (a *Alpaca) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	prices, err := a.Prices(ctx, []string{ticker})
	if err != nil {
		return decimal.Zero, err
	}
	p, ok := prices[strings.ToUpper(ticker)]
	if !ok {
		return decimal.Zero, ErrNoPrice
	}
	return p, nil
}
