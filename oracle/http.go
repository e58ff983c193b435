package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// DefaultRatesURL is a free endpoint returning rates for the base currency in "{base}".
const DefaultRatesURL = "https://open.er-api.com/v6/latest/{base}"

// fetcher performs rate limited JSON GET requests.
type fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

func newFetcher(client *http.Client, limiter *rate.Limiter) fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 5)
	}
	return fetcher{client: client, limiter: limiter}
}

// jwget performs an HTTP GET request and unmarshals the JSON response into data.
func (f fetcher) jwget(ctx context.Context, addr string, data any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	log.Printf("%v %v%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)
	if resp.StatusCode == http.StatusNotFound {
		return ErrNoPrice
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}

// expand replaces "{key}" placeholders in a URL template with escaped values.
func expand(template string, values map[string]string) string {
	for k, v := range values {
		template = strings.ReplaceAll(template, "{"+k+"}", url.PathEscape(v))
	}
	return template
}

// number extracts a number out of a jsonpath result.
func number(jval any) (decimal.Decimal, error) {
	// jsonpath returns either a single value or a list of them, the first one is kept.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return decimal.Zero, ErrNoPrice
		}
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(v)
	case json.Number:
		return decimal.NewFromString(v.String())
	}
	return decimal.Zero, fmt.Errorf("not a number: %v", jval)
}

// JSONRates is a RateOracle reading a JSON endpoint.
type JSONRates struct {
	// URL template, "{base}" is replaced by the base currency.
	URL string
	// Path is the jsonpath to the object mapping currencies to rates.
	Path string
	f    fetcher
}

// NewJSONRates returns a JSONRates oracle. Empty addr and path default to DefaultRatesURL
// and "$.rates".
func NewJSONRates(addr, path string, client *http.Client, limiter *rate.Limiter) *JSONRates {
	if addr == "" {
		addr = DefaultRatesURL
	}
	if path == "" {
		path = "$.rates"
	}
	return &JSONRates{URL: addr, Path: path, f: newFetcher(client, limiter)}
}

func (j *JSONRates) Rates(ctx context.Context, base string) (tradebook.Rates, error) {
	var jobj any
	if err := j.f.jwget(ctx, expand(j.URL, map[string]string{"base": base}), &jobj); err != nil {
		return tradebook.Rates{}, fmt.Errorf("error retrieving rates for %s: %w", base, err)
	}
	jval, err := jsonpath.Get(j.Path, jobj)
	if err != nil {
		return tradebook.Rates{}, fmt.Errorf("error parsing rates for %s: %q %w", base, j.Path, err)
	}
	table, ok := jval.(map[string]any)
	if !ok {
		return tradebook.Rates{}, fmt.Errorf("error parsing rates for %s: %q is not an object", base, j.Path)
	}
	r := tradebook.Rates{Base: base, Date: date.Today(), Rates: make(map[string]decimal.Decimal, len(table))}
	for cur, v := range table {
		d, err := number(v)
		if err != nil {
			return tradebook.Rates{}, fmt.Errorf("error parsing rate %s: %w", cur, err)
		}
		if cur != base && d.IsPositive() {
			r.Rates[strings.ToUpper(cur)] = d
		}
	}
	return r, nil
}

// JSONPrice is a PriceOracle reading a JSON endpoint.
type JSONPrice struct {
	// URL template, "{ticker}" is replaced by the ticker.
	URL string
	// Path is the jsonpath to the price.
	Path string
	f    fetcher
}

// NewJSONPrice returns a JSONPrice oracle.
func NewJSONPrice(addr, path string, client *http.Client, limiter *rate.Limiter) *JSONPrice {
	return &JSONPrice{URL: addr, Path: path, f: newFetcher(client, limiter)}
}

func (j *JSONPrice) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	var jobj any
	if err := j.f.jwget(ctx, expand(j.URL, map[string]string{"ticker": ticker}), &jobj); err != nil {
		return decimal.Zero, fmt.Errorf("error retrieving %q: %w", ticker, err)
	}
	jval, err := jsonpath.Get(j.Path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error parsing %q: %q %w", ticker, j.Path, err)
	}
	p, err := number(jval)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error parsing %q: %q %w", ticker, j.Path, err)
	}
	if !p.IsPositive() {
		return decimal.Zero, ErrNoPrice
	}
	return p, nil
}
