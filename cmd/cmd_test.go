package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/store"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

const tradesCSV = `Number,Date,Ticker,Direction,Quantity,Price,Amount,Fee
1,02.01.2024,AAPL,Buy,10,100,1000,0
2,01.02.2024,AAPL,Buy,5,120,600,0
3,01.03.2024,AAPL,Sell,12,150,1800,0
4,01.03.2024,,Buy,1,1,1,0
`

// setup writes the trades report in a temporary folder and points the store at it.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TRADEBOOK_STORE", "file")
	t.Setenv("TRADEBOOK_STORE_PATH", filepath.Join(dir, "store"))
	t.Setenv("TRADEBOOK_STORE_KEY", "")
	t.Setenv("TRADEBOOK_BASE_CURRENCY", "USD")
	t.Setenv("TRADEBOOK_RATES_PATH", "")
	t.Setenv("TRADEBOOK_RATES_URL", "")
	t.Setenv("EODHD_API_KEY", "")
	t.Setenv("ALPACA_API_KEY", "")
	path := filepath.Join(dir, "trades.csv")
	if err := os.WriteFile(path, []byte(tradesCSV), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

var padding = regexp.MustCompile(` {2,}`)

// execute runs the pnl command line args and returns what it printed, with table padding
// collapsed to a single space.
func execute(t *testing.T, args ...string) (string, subcommands.ExitStatus) {
	t.Helper()
	var buf bytes.Buffer
	stdout = &buf
	t.Cleanup(func() { stdout = os.Stdout })

	fs := flag.NewFlagSet("pnl", flag.ContinueOnError)
	c := subcommands.NewCommander(fs, "pnl")
	Register(c)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("cannot parse %q: %v", args, err)
	}
	status := c.Execute(context.Background())
	return padding.ReplaceAllString(buf.String(), " "), status
}

func TestCommands(t *testing.T) {
	trades := setup(t)
	testCases := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "calculate",
			args: []string{"calculate", "-offline", "-d", "2024-06-01", "-price", "AAPL=130", trades},
			want: []string{"# Calculation as of 2024-06-01", "## Closed Trades", "## Open Positions", "560.00"},
		},
		{
			name: "calculate avg",
			args: []string{"calculate", "-offline", "-method", "avg", "-d", "2024-06-01", trades},
			want: []string{"Method: **AVG**", "520.00"},
		},
		{
			name: "calculate with tax",
			args: []string{"calculate", "-offline", "-tax", "-d", "2024-06-01", "-skipped", trades},
			want: []string{"## Tax 2024 (US)", "## Import", "4 rows read, 1 skipped."},
		},
		{
			name: "closed",
			args: []string{"closed", "-offline", trades},
			want: []string{"## Closed Trades", "2024-03-01"},
		},
		{
			name: "gains over a month",
			args: []string{"closed", "-offline", "-period", "month", "-d", "2024-03-31", trades},
			want: []string{"# Capital Gains Report from 2024-03-01 to 2024-03-31", "| AAPL | +$560.00 |"},
		},
		{
			name: "positions",
			args: []string{"positions", "-offline", "-price", "AAPL=130", trades},
			want: []string{"## Open Positions", "| AAPL |"},
		},
		{
			name: "metrics",
			args: []string{"metrics", "-offline", trades},
			want: []string{"## Performance", "## Totals", "| USD |"},
		},
		{
			name: "tax",
			args: []string{"tax", "-offline", "-year", "2024", "-residency", "de", trades},
			want: []string{"## Tax 2024 (DE)", "### Tax Lots"},
		},
		{
			name: "harvest",
			args: []string{"harvest", "-offline", "-price", "AAPL=50", "-d", "2024-06-01", trades},
			want: []string{"## Harvesting Opportunities", "| AAPL |"},
		},
		{
			name: "nothing to harvest",
			args: []string{"harvest", "-offline", trades},
			want: []string{"No harvesting opportunity."},
		},
		{
			name: "topics",
			args: []string{"topic", "-list"},
			want: []string{"fifo", "wash-sale"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, status := execute(t, tc.args...)
			if status != subcommands.ExitSuccess {
				t.Fatalf("%v exited with %v", tc.args, status)
			}
			for _, want := range tc.want {
				if !strings.Contains(got, want) {
					t.Errorf("%v output does not contain %q:\n%s", tc.args, want, got)
				}
			}
		})
	}
}

func TestCommands_Failures(t *testing.T) {
	trades := setup(t)
	testCases := []struct {
		name string
		args []string
		want subcommands.ExitStatus
	}{
		{"no report", []string{"calculate", "-offline"}, subcommands.ExitFailure},
		{"missing report", []string{"calculate", "-offline", "nope.csv"}, subcommands.ExitFailure},
		{"unknown method", []string{"calculate", "-offline", "-method", "lifo", trades}, subcommands.ExitFailure},
		{"unknown residency", []string{"tax", "-offline", "-residency", "XX", trades}, subcommands.ExitFailure},
		{"period and start", []string{"closed", "-period", "month", "-s", "2024-01-01", trades}, subcommands.ExitUsageError},
		{"invalid preference", []string{"prefs", "-tolerance", "reckless"}, subcommands.ExitUsageError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, status := execute(t, tc.args...); status != tc.want {
				t.Errorf("%v exited with %v, want %v", tc.args, status, tc.want)
			}
		})
	}
}

func TestExport(t *testing.T) {
	trades := setup(t)
	out := filepath.Join(t.TempDir(), "result.json")
	if _, status := execute(t, "export", "-offline", "-o", out, trades); status != subcommands.ExitSuccess {
		t.Fatalf("export exited with %v", status)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var res struct {
		Method       string            `json:"method"`
		ClosedTrades []json.RawMessage `json:"closedTrades"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("cannot decode export: %v", err)
	}
	if res.Method != "FIFO" || len(res.ClosedTrades) != 1 {
		t.Errorf("export = %+v, want FIFO and 1 closed trade", res)
	}

	// An exported JSON of records is a valid input too.
	records := tradebook.Records{Trades: []tradebook.Trade{
		tradebook.NewTrade(date.New(2024, 1, 2), "MSFT", tradebook.Buy, tradebook.Q(2), tradebook.M(300, "USD"), tradebook.M(1, "USD")),
	}}
	data, _ = json.Marshal(records)
	in := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(in, data, 0644); err != nil {
		t.Fatal(err)
	}
	got, status := execute(t, "positions", "-offline", in, trades)
	if status != subcommands.ExitSuccess || !strings.Contains(got, "| MSFT |") || !strings.Contains(got, "| AAPL |") {
		t.Errorf("positions on JSON and CSV reports = %v:\n%s", status, got)
	}
}

func TestPrefsAndHistory(t *testing.T) {
	trades := setup(t)

	if _, status := execute(t, "prefs", "-method", "avg", "-residency", "de", "-tolerance", "aggressive"); status != subcommands.ExitSuccess {
		t.Fatalf("prefs exited with %v", status)
	}
	got, _ := execute(t, "prefs")
	for _, want := range []string{"method: AVG", "residency: DE", "tolerance: aggressive"} {
		if !strings.Contains(got, want) {
			t.Errorf("prefs = %q, want %q", got, want)
		}
	}

	// the saved method applies when -method is not given.
	got, _ = execute(t, "calculate", "-offline", trades)
	if !strings.Contains(got, "Method: **AVG**") {
		t.Errorf("calculate does not use the saved method:\n%s", got)
	}

	got, _ = execute(t, "history")
	if !strings.Contains(got, "AAPL") {
		t.Errorf("history = %q, want AAPL", got)
	}
	if _, status := execute(t, "history", "-clear"); status != subcommands.ExitSuccess {
		t.Fatalf("history -clear exited with %v", status)
	}
	got, _ = execute(t, "history")
	if !strings.Contains(got, "No ticker calculated yet.") {
		t.Errorf("history after clear = %q", got)
	}

	got, _ = execute(t, "prefs", "-reset")
	if !strings.Contains(got, "method: FIFO") {
		t.Errorf("prefs -reset = %q, want FIFO", got)
	}
}

func TestPriceFlag(t *testing.T) {
	p := make(priceFlag)
	if err := p.Set("aapl=130.5,MSFT=1 200"); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}
	if err := p.Set("GOOG=2.5"); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}
	want := map[string]decimal.Decimal{
		"AAPL": decimal.RequireFromString("130.5"),
		"MSFT": decimal.NewFromInt(1200),
		"GOOG": decimal.RequireFromString("2.5"),
	}
	for k, v := range want {
		if !p[k].Equal(v) {
			t.Errorf("price[%s] = %v, want %v", k, p[k], v)
		}
	}
	if got, want := p.String(), "AAPL=130.5,GOOG=2.5,MSFT=1200"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	for _, bad := range []string{"AAPL", "=12", "AAPL=abc"} {
		if err := p.Set(bad); err == nil {
			t.Errorf("Set(%q) expected an error", bad)
		}
	}
}

func TestCalcFlags_Settings(t *testing.T) {
	prefs := store.Preferences{Method: tradebook.FIFO, Residency: "UK", Currency: "GBP", Tolerance: tradebook.Conservative}
	on := date.New(2023, 5, 1)

	c := &calcFlags{threshold: -50}
	s, err := c.settings(prefs, on)
	if err != nil {
		t.Fatalf("settings() unexpected error: %v", err)
	}
	if s.Year != 2023 || s.Residency != "UK" || s.Currency != "GBP" || s.Tolerance != tradebook.Conservative || s.HarvestThreshold != -50 {
		t.Errorf("settings() = %+v, want the preferences for 2023", s)
	}

	c = &calcFlags{year: 2024, residency: "fr", currency: "eur", tolerance: "aggressive"}
	s, err = c.settings(prefs, on)
	if err != nil {
		t.Fatalf("settings() unexpected error: %v", err)
	}
	if s.Year != 2024 || s.Residency != "FR" || s.Currency != "EUR" || s.Tolerance != tradebook.Aggressive {
		t.Errorf("settings() = %+v, want the flags", s)
	}

	if _, err := (&calcFlags{tolerance: "reckless"}).settings(prefs, on); err == nil {
		t.Error("settings() expected an error for an unknown tolerance")
	}
}

func TestCompletion(t *testing.T) {
	c := subcommands.NewCommander(flag.NewFlagSet("pnl", flag.ContinueOnError), "pnl")
	Register(c)
	root := Completion(c, flag.CommandLine)
	for _, name := range []string{"calculate", "tax", "serve", "topic"} {
		if _, ok := root.Sub[name]; !ok {
			t.Errorf("Completion() has no %q subcommand", name)
		}
	}
	if _, ok := root.Sub["calculate"].Flags["method"]; !ok {
		t.Error("Completion() does not complete calculate -method")
	}
	if _, ok := root.Flags["store"]; !ok {
		t.Error("Completion() does not complete the global -store flag")
	}
}
