package tradebook

import (
	"github.com/etnz/tradebook/date"
)

// WashSaleWindow is the number of days after a loss during which a repurchase is a wash sale.
const WashSaleWindow = 30

// WashSaleWarning flags a loss that may be disallowed because the ticker was bought back soon after.
type WashSaleWarning struct {
	TaxLotID           string    `json:"taxLotId"`
	Ticker             string    `json:"ticker"`
	SaleDate           date.Date `json:"saleDate"`
	RepurchaseDate     date.Date `json:"repurchaseDate"`
	DaysAfterSale      int       `json:"daysAfterSale"`
	Loss               Money     `json:"loss"` // magnitude of the loss
	RepurchaseQuantity Quantity  `json:"repurchaseQuantity"`
	DisallowedLoss     Money     `json:"disallowedLoss"`
}

// DetectWashSales scans, for every tax lot realized at a loss, the buys of the same ticker
// made in the 30 days following the sale.
//
// Only the window after the sale is checked, repurchases made before the sale are not flagged.
// The disallowed loss is pro-rated by the quantity bought back.
func DetectWashSales(lots []TaxLot, trades []Trade) []WashSaleWarning {
	buys := make(map[string][]Trade)
	for _, t := range sortedTrades(trades) {
		if t.Direction == Buy {
			buys[t.Ticker] = append(buys[t.Ticker], t)
		}
	}

	var warnings []WashSaleWarning
	for _, l := range lots {
		if !l.IsLoss() || l.Quantity.IsZero() {
			continue
		}
		loss := l.Gain.Neg()
		for _, b := range buys[l.Ticker] {
			days := b.Date.DaysSince(l.DispositionDate)
			if days < 1 || days > WashSaleWindow {
				continue
			}
			q := b.Quantity.min(l.Quantity)
			warnings = append(warnings, WashSaleWarning{
				TaxLotID:           l.ID,
				Ticker:             l.Ticker,
				SaleDate:           l.DispositionDate,
				RepurchaseDate:     b.Date,
				DaysAfterSale:      days,
				Loss:               loss,
				RepurchaseQuantity: b.Quantity,
				DisallowedLoss:     loss.Mul(q).Div(l.Quantity),
			})
		}
	}
	return warnings
}

// DisallowedLosses sums the disallowed losses per currency.
func DisallowedLosses(warnings []WashSaleWarning) map[string]Money {
	res := make(map[string]Money)
	for _, w := range warnings {
		cur := w.DisallowedLoss.Currency()
		res[cur] = M(0, cur).Add(res[cur]).Add(w.DisallowedLoss)
	}
	return res
}
