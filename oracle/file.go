package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/etnz/tradebook"
)

// FileRates reads rates from a JSON file with the same shape as tradebook.Rates:
//
//	{"base": "EUR", "date": "2024-06-01", "rates": {"USD": "1.08", "GBP": "0.85"}}
type FileRates struct {
	Path string
}

// Rates returns the file rates, rebased on base.
func (f FileRates) Rates(_ context.Context, base string) (tradebook.Rates, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return tradebook.Rates{}, tradebook.WrapError("read rates", err)
	}
	var r tradebook.Rates
	if err := json.Unmarshal(data, &r); err != nil {
		return tradebook.Rates{}, tradebook.WrapError("read rates", fmt.Errorf("%s: %w", f.Path, err))
	}
	if r.Base == "" {
		return tradebook.Rates{}, tradebook.WrapError("read rates", fmt.Errorf("%s: missing base currency", f.Path))
	}
	return rebase(r, base), nil
}
