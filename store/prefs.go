package store

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/etnz/tradebook"
)

const (
	prefsKey   = "prefs"
	historyKey = "history"
)

// MaxHistory is the number of tickers kept in the search history.
const MaxHistory = 20

// Preferences are the user defaults for calculations.
type Preferences struct {
	Method    tradebook.CostBasisMethod `json:"method"`
	Residency string                    `json:"residency"`
	Currency  string                    `json:"currency"`
	Tolerance tradebook.RiskTolerance   `json:"tolerance"`
}

// DefaultPreferences returns FIFO with the default tax settings.
func DefaultPreferences() Preferences {
	s := tradebook.DefaultTaxSettings()
	return Preferences{Method: tradebook.FIFO, Residency: s.Residency, Currency: s.Currency, Tolerance: s.Tolerance}
}

// TaxSettings returns the default tax settings overridden by the preferences.
func (p Preferences) TaxSettings() tradebook.TaxSettings {
	s := tradebook.DefaultTaxSettings()
	if p.Residency != "" {
		s.Residency = p.Residency
	}
	if p.Currency != "" {
		s.Currency = p.Currency
	}
	s.Tolerance = p.Tolerance
	return s
}

// LoadPreferences reads the preferences, defaults when none were saved.
func LoadPreferences(ctx context.Context, s Store) (Preferences, error) {
	p := DefaultPreferences()
	err := GetJSON(ctx, s, prefsKey, &p)
	if errors.Is(err, ErrNotFound) {
		return DefaultPreferences(), nil
	}
	return p, err
}

// SavePreferences writes the preferences.
func SavePreferences(ctx context.Context, s Store, p Preferences) error {
	return SetJSON(ctx, s, prefsKey, p)
}

// History returns the searched tickers, most recent first.
func History(ctx context.Context, s Store) ([]string, error) {
	var h []string
	err := GetJSON(ctx, s, historyKey, &h)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return h, err
}

// AddHistory records tickers as the most recent searches.
func AddHistory(ctx context.Context, s Store, tickers ...string) error {
	h, err := History(ctx, s)
	if err != nil {
		return err
	}
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		h = slices.DeleteFunc(h, func(x string) bool { return x == t })
		h = slices.Insert(h, 0, t)
	}
	if len(h) > MaxHistory {
		h = h[:MaxHistory]
	}
	return SetJSON(ctx, s, historyKey, h)
}

// ClearHistory empties the search history.
func ClearHistory(ctx context.Context, s Store) error {
	return SetJSON(ctx, s, historyKey, []string{})
}
