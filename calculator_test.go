package tradebook

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func sampleRecords() Records {
	return Records{
		Trades: []Trade{
			sell(day(time.March, 1), "AAPL", 12, 150, 0),
			buy(day(time.January, 2), "AAPL", 10, 100, 0),
			buy(day(time.February, 1), "AAPL", 5, 120, 0),
			buy(day(time.January, 2), "MSFT", 4, 300, 1),
			sell(day(time.April, 2), "MSFT", 4, 250, 1),
			buy(day(time.April, 12), "MSFT", 2, 260, 1),
			{Date: day(time.April, 2), Ticker: "", Direction: Buy, Quantity: Q(1), Price: USD(1)},
			{Date: day(time.April, 2), Ticker: "BAD", Direction: Buy, Quantity: Q(0), Price: USD(1)},
		},
		Fees:      []FeeRecord{{Date: day(time.May, 1), Category: Fee, Amount: USD(3)}},
		Dividends: []Dividend{{Date: day(time.May, 1), Ticker: "MSFT", Amount: USD(7)}},
		Cash:      []CashTransaction{{Date: day(time.January, 1), Kind: Deposit, Amount: USD(5000)}},
	}
}

func TestCalculate(t *testing.T) {
	on := day(time.June, 1)
	prices := map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(130), "MSFT": decimal.NewFromInt(200)}
	settings := DefaultTaxSettings()
	settings.Year = 2024
	settings.Tolerance = Aggressive
	res, err := NewCalculator(sampleRecords(), AsOf(on), WithPrices(prices)).Calculate(FIFO, &settings)
	if err != nil {
		t.Fatalf("Calculate() unexpected error: %v", err)
	}

	if got, want := len(res.ClosedTrades), 2; got != want {
		t.Fatalf("got %d closed trades, want %d", got, want)
	}
	if got, want := res.ClosedTrades[0].RealizedProfit, USD(560); !got.Equal(want) {
		t.Errorf("AAPL RealizedProfit = %v, want %v", got, want)
	}
	// 4*250-1 - (4*300+1)
	if got, want := res.ClosedTrades[1].RealizedProfit, USD(-202); !got.Equal(want) {
		t.Errorf("MSFT RealizedProfit = %v, want %v", got, want)
	}
	if got, want := res.OpenPositions.Tickers(), []string{"AAPL", "MSFT"}; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("open tickers = %v, want %v", got, want)
	}
	if got, want := res.Totals["USD"].NetProfit, USD(560-202-3+7); !got.Equal(want) {
		t.Errorf("NetProfit = %v, want %v", got, want)
	}
	if len(res.WashSales) != 1 {
		t.Errorf("got %d wash sales, want 1", len(res.WashSales))
	}
	if res.Tax == nil || !res.Tax.HarvestedLosses.Equal(USD(202)) {
		t.Errorf("Tax = %+v, want harvested losses of 202", res.Tax)
	}
	if len(res.TaxLots) != 3 {
		t.Errorf("got %d tax lots, want 3", len(res.TaxLots))
	}
	// MSFT is bought at 261 and worth 200.
	if len(res.Harvesting) != 1 || res.Harvesting[0].Ticker != "MSFT" {
		t.Errorf("Harvesting = %v, want MSFT", res.Harvesting)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	settings := DefaultTaxSettings()
	c := NewCalculator(sampleRecords(), AsOf(day(time.June, 1)), WithParallelism(4))
	var outputs []string
	for range 2 {
		res, err := c.Calculate(AverageCost, &settings)
		if err != nil {
			t.Fatalf("Calculate() unexpected error: %v", err)
		}
		b, err := json.Marshal(res)
		if err != nil {
			t.Fatalf("json.Marshal() unexpected error: %v", err)
		}
		outputs = append(outputs, string(b))
	}
	if outputs[0] != outputs[1] {
		t.Errorf("two runs differ:\n%s\n%s", outputs[0], outputs[1])
	}
}

func TestCalculate_Imported(t *testing.T) {
	records := sampleRecords()
	records.Imported = []ImportedLot{{Ticker: "TSLA", Date: day(time.January, 1), Quantity: Q(2), UnitCost: USD(200)}}
	res, err := NewCalculator(records, AsOf(day(time.June, 1))).Calculate(FIFO, nil)
	if err != nil {
		t.Fatalf("Calculate() unexpected error: %v", err)
	}
	if !res.Imported {
		t.Error("Imported = false, want true")
	}
	if got := res.OpenPositions.Tickers(); len(got) != 1 || got[0] != "TSLA" {
		t.Errorf("open tickers = %v, want [TSLA]", got)
	}
	// realized profit and cash still come from the trades.
	if got, want := res.Totals["USD"].RealizedProfit, USD(358); !got.Equal(want) {
		t.Errorf("RealizedProfit = %v, want %v", got, want)
	}
}

func TestCalculate_Errors(t *testing.T) {
	t.Run("unknown method", func(t *testing.T) {
		_, err := NewCalculator(sampleRecords()).Calculate(CostBasisMethod(42), nil)
		if !errors.Is(err, ErrUnknownMethod) {
			t.Errorf("Calculate() error = %v, want %v", err, ErrUnknownMethod)
		}
	})
	t.Run("unknown residency", func(t *testing.T) {
		settings := TaxSettings{Year: 2024, Residency: "Atlantis"}
		_, err := NewCalculator(sampleRecords()).Calculate(FIFO, &settings)
		if !errors.Is(err, ErrUnknownResidency) {
			t.Errorf("Calculate() error = %v, want %v", err, ErrUnknownResidency)
		}
	})
	t.Run("mixed currencies", func(t *testing.T) {
		records := Records{Trades: []Trade{
			buy(day(time.January, 1), "X", 1, 1, 0),
			inCurrency(buy(day(time.January, 2), "X", 1, 1, 0), "EUR"),
		}}
		_, err := NewCalculator(records).Calculate(FIFO, nil)
		if !errors.Is(err, ErrMixedCurrency) {
			t.Errorf("Calculate() error = %v, want %v", err, ErrMixedCurrency)
		}
	})
	t.Run("mixed currencies in imported lots", func(t *testing.T) {
		records := sampleRecords()
		records.Imported = []ImportedLot{
			{Ticker: "SAP", Date: day(time.January, 1), Quantity: Q(2), UnitCost: EUR(100)},
			{Ticker: "SAP", Date: day(time.February, 1), Quantity: Q(1), UnitCost: USD(110)},
		}
		_, err := NewCalculator(records, AsOf(day(time.June, 1))).Calculate(FIFO, nil)
		if !errors.Is(err, ErrMixedCurrency) {
			t.Errorf("Calculate() error = %v, want %v", err, ErrMixedCurrency)
		}
	})
}

func TestParseCostBasisMethod(t *testing.T) {
	for in, want := range map[string]CostBasisMethod{"FIFO": FIFO, "fifo": FIFO, "AVG": AverageCost, "average": AverageCost} {
		got, err := ParseCostBasisMethod(in)
		if err != nil || got != want {
			t.Errorf("ParseCostBasisMethod(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseCostBasisMethod("LIFO"); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("ParseCostBasisMethod(LIFO) error = %v, want %v", err, ErrUnknownMethod)
	}
}
