package normalize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
)

func TestParseNumber(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"12", "12"},
		{"-1.20", "-1.2"},
		{"1,234.56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"1 234,56", "1234.56"},
		{"1'234.5", "1234.5"},
		{"1,5", "1.5"},
		{"0,250", "0.25"},
		{"1,234", "1234"},
		{"1.234.567", "1234567"},
		{"(12.50)", "-12.5"},
		{"$ 99.90", "99.9"},
		{"€1.000,00", "1000"},
		{"7.5-", "-7.5"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseNumber(tc.in)
			if err != nil {
				t.Fatalf("ParseNumber(%q) unexpected error: %v", tc.in, err)
			}
			if want := decimal.RequireFromString(tc.want); !got.Equal(want) {
				t.Errorf("ParseNumber(%q) = %v, want %v", tc.in, got, want)
			}
		})
	}

	for _, in := range []string{"", "abc", "-", "1.2.3,4,5"} {
		if _, err := ParseNumber(in); err == nil {
			t.Errorf("ParseNumber(%q) expected an error", in)
		}
	}
}

func TestNormalize_Trades(t *testing.T) {
	rows := []Row{
		{"Number": "1", "Date": "02.01.2024", "Ticker": "aapl", "Direction": "Buy", "Quantity": "10", "Price": "100", "Amount": "-1000", "Fee": "-1.5"},
		{"Number": "2", "Date": "01.03.2024", "Ticker": "AAPL", "Direction": "sell", "Quantity": "-4", "Price": "150", "Amount": "600", "Profit": "199", "Fee": "1"},
		{"Number": "3", "Date": "01.03.2024", "Ticker": "", "Direction": "buy", "Quantity": "1", "Price": "1"},
		{"Number": "4", "Date": "01.03.2024", "Ticker": "MSFT", "Direction": "buy", "Quantity": "0", "Price": "1"},
		{"Number": "5", "Date": "01.03.2024", "Ticker": "MSFT", "Direction": "buy", "Quantity": "x", "Price": "1"},
		{"Number": "6", "Date": "01.03.2024", "Ticker": "MSFT", "Direction": "buy", "Quantity": "2", "Price": "0", "Amount": "600"},
	}
	records, report := Normalize(rows)

	if got, want := len(records.Trades), 2; got != want {
		t.Fatalf("got %d trades, want %d", got, want)
	}
	b := records.Trades[0]
	if b.Ticker != "AAPL" || b.Direction != tradebook.Buy {
		t.Errorf("trade = %v %v, want AAPL buy", b.Ticker, b.Direction)
	}
	if want := date.New(2024, time.January, 2); b.Date != want {
		t.Errorf("Date = %v, want %v", b.Date, want)
	}
	if want := tradebook.M(1.5, "USD"); !b.Fee.Equal(want) {
		t.Errorf("Fee = %v, want %v", b.Fee, want)
	}
	if want := tradebook.M(1000, "USD"); !b.Amount.Equal(want) {
		t.Errorf("Amount = %v, want %v", b.Amount, want)
	}
	s := records.Trades[1]
	if s.Direction != tradebook.Sell || !s.Quantity.Equal(tradebook.Q(4)) {
		t.Errorf("trade = %v %v, want sell 4", s.Direction, s.Quantity)
	}

	if got, want := len(report.Skipped), 4; got != want {
		t.Fatalf("got %d skipped rows, want %d: %v", got, want, report.Skipped)
	}
	for i, row := range []int{3, 4, 5, 6} {
		if report.Skipped[i].Row != row {
			t.Errorf("Skipped[%d].Row = %d, want %d", i, report.Skipped[i].Row, row)
		}
	}
}

func TestNormalize_Fees(t *testing.T) {
	rows := []Row{
		{"Date": "05.01.2024", "Direction": "Dividend", "Comment": "AAPL dividend", "Amount": "10.50", "Currency": "USD"},
		{"Date": "05.01.2024", "Direction": "Tax", "Comment": "withholding", "Amount": "-1.50", "Currency": "USD"},
		{"Date": "05.01.2024", "Direction": "Trading fee", "Comment": "Monthly platform fee", "Amount": "-2.00", "Currency": "USD"},
		{"Date": "05.01.2024", "Direction": "Bank transfer", "Comment": "Deposit", "Amount": "1000", "Currency": "eur"},
		{"Date": "06.01.2024", "Direction": "Bank transfer", "Comment": "Payout", "Amount": "-200", "Currency": "EUR"},
		{"Date": "06.01.2024", "Direction": "Bonus", "Comment": "", "Amount": "5", "Currency": "EUR"},
		{"Date": "06.01.2024", "Direction": "Fee", "Comment": "", "Amount": "0", "Currency": "EUR"},
	}
	records, report := Normalize(rows)

	if len(records.Dividends) != 1 || len(records.Fees) != 2 || len(records.Cash) != 2 {
		t.Fatalf("got %d dividends, %d fees, %d cash, want 1, 2, 2", len(records.Dividends), len(records.Fees), len(records.Cash))
	}
	if got, want := records.Fees[0].Category, tradebook.Tax; got != want {
		t.Errorf("Fees[0].Category = %v, want %v", got, want)
	}
	if got, want := records.Cash[1].Kind, tradebook.Withdrawal; got != want {
		t.Errorf("Cash[1].Kind = %v, want %v", got, want)
	}
	if got, want := records.Cash[0].Amount, tradebook.M(1000, "EUR"); !got.Equal(want) {
		t.Errorf("Cash[0].Amount = %v, want %v", got, want)
	}
	if got, want := len(report.Skipped), 2; got != want {
		t.Errorf("got %d skipped rows, want %d", got, want)
	}

	agg := tradebook.NewAggregator()
	for _, f := range records.Fees {
		agg.Fee(f)
	}
	for _, d := range records.Dividends {
		agg.Dividend(d)
	}
	totals := agg.Totals()["USD"]
	if want := tradebook.M(10.5, "USD"); !totals.Dividends.Equal(want) {
		t.Errorf("Dividends = %v, want %v", totals.Dividends, want)
	}
	if want := tradebook.M(3.5, "USD"); !totals.FeesPaid.Equal(want) {
		t.Errorf("FeesPaid = %v, want %v", totals.FeesPaid, want)
	}
	if want := tradebook.M(7, "USD"); !totals.NetProfit.Equal(want) {
		t.Errorf("NetProfit = %v, want %v", totals.NetProfit, want)
	}
}

func TestNormalize_Positions(t *testing.T) {
	rows := []Row{
		{"Symbol": "tsla", "Position": "2", "Average Price": "200,50", "Currency": "USD", "Date": "2024-01-01"},
		{"Symbol": "NVDA", "Position": "0", "Average Price": "10", "Currency": "USD"},
	}
	records, report := Normalize(rows)
	if len(records.Imported) != 1 {
		t.Fatalf("got %d imported lots, want 1", len(records.Imported))
	}
	lot := records.Imported[0]
	if lot.Ticker != "TSLA" || !lot.Quantity.Equal(tradebook.Q(2)) || !lot.UnitCost.Equal(tradebook.M(200.5, "USD")) {
		t.Errorf("lot = %+v, want TSLA 2 @ 200.50", lot)
	}
	if len(report.Skipped) != 1 {
		t.Errorf("got %d skipped rows, want 1", len(report.Skipped))
	}
}

func TestNormalize_WithCurrency(t *testing.T) {
	rows := []Row{{"Date": "2024-01-01", "Ticker": "SAP", "Side": "BUY", "Qty": "1", "Price": "100"}}
	records, _ := Normalize(rows, WithCurrency("eur"))
	if len(records.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(records.Trades))
	}
	if got := records.Trades[0].Currency(); got != "EUR" {
		t.Errorf("Currency() = %q, want EUR", got)
	}
}

func TestReadCSV(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  int
	}{
		{"comma", "Date,Ticker,Direction,Quantity,Price\n2024-01-01,AAPL,buy,1,10\n", 1},
		{"semicolon", "Date;Ticker;Direction;Quantity;Price\n01.01.2024;AAPL;buy;1;10,5\n\n01.02.2024;AAPL;sell;1;11\n", 2},
		{"tab", "Date\tTicker\n2024-01-01\tAAPL\n", 1},
		{"short row", "Date,Ticker,Quantity\n2024-01-01,AAPL\n", 1},
		{"empty", "", 0},
		{"byte order mark", "\ufeffDate,Ticker,Direction,Quantity,Price\n2024-01-01,AAPL,buy,1,10\n", 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := ReadCSV(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("ReadCSV() unexpected error: %v", err)
			}
			if len(rows) != tc.want {
				t.Errorf("ReadCSV() got %d rows, want %d", len(rows), tc.want)
			}
			if tc.want > 0 && rows[0].index()["date"] == "" {
				t.Errorf("ReadCSV() first row %v has no date column", rows[0])
			}
		})
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	trades := filepath.Join(dir, "trades.csv")
	fees := filepath.Join(dir, "fees.csv")
	if err := os.WriteFile(trades, []byte("Number;Date;Settlement Date;Ticker;Direction;Quantity;Price;Amount;Profit;Fee\n"+
		"1;02.01.2024;04.01.2024;AAPL;Buy;10;100;1000;0;1\n"+
		"2;01.03.2024;03.03.2024;AAPL;Sell;4;150;600;199;1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fees, []byte("Date,Direction,Comment,Amount,Currency\n"+
		"05.01.2024,Trading fee,Monthly platform fee,-1.20,USD\n"+
		"05.01.2024,Bank transfer,Deposit,1000.00,USD\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	records, report, err := LoadFiles([]string{trades, fees})
	if err != nil {
		t.Fatalf("LoadFiles() unexpected error: %v", err)
	}
	if len(records.Trades) != 2 || len(records.Fees) != 1 || len(records.Cash) != 1 {
		t.Errorf("got %d trades, %d fees, %d cash, want 2, 1, 1", len(records.Trades), len(records.Fees), len(records.Cash))
	}
	if report.Rows != 4 || len(report.Skipped) != 0 {
		t.Errorf("report = %v, want 4 rows, 0 skipped", report)
	}

	if _, _, err := LoadFile(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("LoadFile() expected an error for a missing file")
	}
}
