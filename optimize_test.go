package tradebook

import (
	"testing"
	"time"

	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
)

func TestHoldingRisk(t *testing.T) {
	testCases := []struct {
		days int
		want RiskLevel
	}{
		{0, HighRisk},
		{29, HighRisk},
		{30, MediumRisk},
		{364, MediumRisk},
		{365, LowRisk},
	}
	for _, tc := range testCases {
		if got := HoldingRisk(tc.days); got != tc.want {
			t.Errorf("HoldingRisk(%d) = %v, want %v", tc.days, got, tc.want)
		}
	}
}

func TestIdentifyHarvestingOpportunities(t *testing.T) {
	on := date.New(2024, time.June, 1)
	positions := OpenPositions{
		"DOWN": {newLot(buy(on.Add(-100), "DOWN", 10, 100, 0))},
		"BIT":  {newLot(buy(on.Add(-100), "BIT", 10, 100, 0))},
		"UP":   {newLot(buy(on.Add(-100), "UP", 10, 100, 0))},
		"NOPX": {newLot(buy(on.Add(-100), "NOPX", 10, 100, 0))},
	}
	prices := map[string]decimal.Decimal{
		"DOWN": decimal.NewFromInt(60),
		"BIT":  decimal.NewFromInt(99),
		"UP":   decimal.NewFromInt(150),
	}
	valuations := Valuate(positions, prices, NewRates("USD"), on)
	schedule := TaxSchedule{ShortTerm: 0.25, LongTerm: 0.15}

	got := IdentifyHarvestingOpportunities(valuations, -100, schedule, NewRates("USD"), "USD")
	if len(got) != 1 {
		t.Fatalf("IdentifyHarvestingOpportunities() got %d, want 1: %v", len(got), got)
	}
	h := got[0]
	if h.Ticker != "DOWN" {
		t.Errorf("Ticker = %q, want DOWN", h.Ticker)
	}
	if want := USD(-400); !h.UnrealizedLoss.Equal(want) {
		t.Errorf("UnrealizedLoss = %v, want %v", h.UnrealizedLoss, want)
	}
	if want := 0.4; h.Confidence != want {
		t.Errorf("Confidence = %v, want %v", h.Confidence, want)
	}
	if h.Risk != MediumRisk {
		t.Errorf("Risk = %v, want %v", h.Risk, MediumRisk)
	}
	if want := USD(100); !h.EstimatedSavings.Equal(want) {
		t.Errorf("EstimatedSavings = %v, want %v", h.EstimatedSavings, want)
	}
}

func TestOptimize(t *testing.T) {
	on := date.New(2024, time.June, 1)
	settings := TaxSettings{Year: 2024, Residency: "XX", Currency: "USD", HarvestThreshold: -1, Tolerance: Aggressive}
	schedule := TaxSchedule{ShortTerm: 0.3, LongTerm: 0.1, Dividends: 0.2}
	positions := OpenPositions{
		"LOSER":  {newLot(buy(on.Add(-10), "LOSER", 10, 100, 0))},
		"WINNER": {newLot(buy(on.Add(-350), "WINNER", 10, 100, 0))},
	}
	prices := map[string]decimal.Decimal{"LOSER": decimal.NewFromInt(50), "WINNER": decimal.NewFromInt(200)}
	rates := NewRates("USD")
	valuations := Valuate(positions, prices, rates, on)
	in := OptimizationInput{
		Settings:      settings,
		Schedule:      schedule,
		Tax:           TaxCalculation{Year: 2024, ShortTermGains: USD(0), LongTermGains: USD(100), HarvestedLosses: USD(300)},
		Harvesting:    IdentifyHarvestingOpportunities(valuations, settings.HarvestThreshold, schedule, rates, "USD"),
		OpenPositions: positions,
		Prices:        prices,
		Dividends:     []Dividend{{Date: on, Ticker: "WINNER", Amount: USD(50)}},
		Rates:         rates,
		AsOf:          on,
	}

	got := Optimize(in)
	// harvesting 500*0.3=150 high, deferral 1000*0.2=200 low, carryforward 200*0.3=60 low, asset location 50*0.2=10 low.
	want := []struct {
		kind    RecommendationKind
		savings Money
	}{
		{Deferral, USD(200)},
		{Harvesting, USD(150)},
		{Carryforward, USD(60)},
		{AssetLocation, USD(10)},
	}
	if len(got) != len(want) {
		t.Fatalf("Optimize() got %d recommendations, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Kind != w.kind || !got[i].EstimatedSavings.Equal(w.savings) {
			t.Errorf("recommendation %d = %v %v, want %v %v", i, got[i].Kind, got[i].EstimatedSavings, w.kind, w.savings)
		}
	}

	t.Run("conservative", func(t *testing.T) {
		in.Settings.Tolerance = Conservative
		for _, r := range Optimize(in) {
			if r.Risk != LowRisk {
				t.Errorf("conservative tolerance kept %v with risk %v", r.Kind, r.Risk)
			}
			if r.Kind == Harvesting {
				t.Errorf("conservative tolerance kept a high risk harvesting")
			}
		}
	})
}
