package tradebook

import (
	"testing"
	"time"

	"github.com/etnz/tradebook/date"
)

func TestTreatment(t *testing.T) {
	bought := date.New(2023, time.January, 1)
	testCases := []struct {
		name string
		sold date.Date
		want TaxTreatment
	}{
		{"364 days", bought.Add(364), ShortTerm},
		{"365 days", bought.Add(365), LongTerm},
		{"same day", bought, ShortTerm},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lots := BuildTaxLots([]Trade{
				buy(bought, "ABC", 1, 10, 0),
				sell(tc.sold, "ABC", 1, 12, 0),
			})
			if len(lots) != 1 {
				t.Fatalf("BuildTaxLots() got %d lots, want 1", len(lots))
			}
			if got := lots[0].Treatment; got != tc.want {
				t.Errorf("Treatment = %v, want %v", got, tc.want)
			}
			if got, want := lots[0].HoldingPeriodDays, tc.sold.DaysSince(bought); got != want {
				t.Errorf("HoldingPeriodDays = %d, want %d", got, want)
			}
		})
	}
}

func TestBuildTaxLots_SplitsAcrossLots(t *testing.T) {
	trades := []Trade{
		buy(day(time.January, 1), "ABC", 2, 10, 0),
		buy(day(time.February, 1), "ABC", 2, 11, 0),
		buy(day(time.March, 1), "ABC", 2, 12, 0),
		sell(day(time.April, 1), "ABC", 5, 20, 3),
	}
	lots := BuildTaxLots(trades)
	if len(lots) != 3 {
		t.Fatalf("BuildTaxLots() got %d lots, want 3", len(lots))
	}
	wantQ := []Quantity{Q(2), Q(2), Q(1)}
	wantCost := []Money{USD(20), USD(22), USD(12)}
	for i, l := range lots {
		if !l.Quantity.Equal(wantQ[i]) {
			t.Errorf("lot %d quantity = %v, want %v", i, l.Quantity, wantQ[i])
		}
		if !l.AcquisitionCost.Equal(wantCost[i]) {
			t.Errorf("lot %d cost = %v, want %v", i, l.AcquisitionCost, wantCost[i])
		}
	}
	// sell fee 3 is pro rated by quantity: 1.2, 1.2 and 0.6.
	if got, want := lots[2].Proceeds, USD(19.4); !got.Equal(want) {
		t.Errorf("last lot proceeds = %v, want %v", got, want)
	}
}

func TestBuildTaxLots_AgreesWithLedger(t *testing.T) {
	trades := []Trade{
		buy(day(time.January, 1), "ABC", 3, 10, 1),
		buy(day(time.January, 15), "ABC", 7, 13, 2),
		sell(day(time.February, 1), "ABC", 4, 12, 1),
		buy(day(time.February, 10), "ABC", 3, 9, 1),
		sell(day(time.March, 1), "ABC", 7, 11, 1),
		sell(day(time.March, 2), "ABC", 4, 12, 1), // oversold by 2
	}
	closed, _ := Match("ABC", FIFO, trades)
	want := TotalRealizedProfit(closed)["USD"]

	got := USD(0)
	unmatched := 0
	for _, l := range BuildTaxLots(trades) {
		got = got.Add(l.Gain)
		if l.Unmatched {
			unmatched++
		}
	}
	if !got.Equal(want) {
		t.Errorf("sum of tax lot gains = %v, want %v", got, want)
	}
	if unmatched != 1 {
		t.Errorf("got %d unmatched tax lots, want 1", unmatched)
	}
}

func TestBuildTaxLots_Deterministic(t *testing.T) {
	trades := []Trade{
		sell(day(time.March, 1), "XYZ", 1, 5, 0),
		buy(day(time.January, 1), "XYZ", 2, 4, 0),
		buy(day(time.January, 1), "ABC", 2, 4, 0),
		sell(day(time.March, 1), "ABC", 2, 5, 0),
	}
	a, b := BuildTaxLots(trades), BuildTaxLots(trades)
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("BuildTaxLots() got %d and %d lots, want 2", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("lot %d ID = %s then %s", i, a[i].ID, b[i].ID)
		}
	}
	if a[0].Ticker != "ABC" || a[1].Ticker != "XYZ" {
		t.Errorf("lots not sorted by ticker: %s, %s", a[0].Ticker, a[1].Ticker)
	}
}
