package tradebook

import (
	"github.com/etnz/tradebook/date"
)

// Lot represents a single purchase of a security, used for cost basis calculations.
//
// Lots are values: selling never modifies a lot in place, it produces a new list of lots.
type Lot struct {
	Date     date.Date
	Ticker   string
	Quantity Quantity
	Cost     Money // Total cost of the lot, purchase price plus allocated fees.
	Price    Money // Unit purchase price, without fees.
	Fees     Money // Fees allocated to this lot.
}

// newLot returns the lot acquired by a buy trade.
func newLot(t Trade) Lot {
	return Lot{
		Date:     t.Date,
		Ticker:   t.Ticker,
		Quantity: t.Quantity,
		Cost:     t.Gross().Add(t.Fee),
		Price:    t.Price,
		Fees:     t.Fee,
	}
}

// UnitCost returns the cost of a single unit, fees included.
func (l Lot) UnitCost() Money {
	if l.Quantity.IsZero() {
		return M(0, l.Cost.Currency())
	}
	return l.Cost.Div(l.Quantity)
}

// PricePaid returns the purchase price of the lot without fees.
func (l Lot) PricePaid() Money { return l.Price.Mul(l.Quantity) }

// Currency of the lot.
func (l Lot) Currency() string { return l.Cost.Currency() }

// take returns the part of the lot made of q units and the remaining part.
// The cost is split proportionally and the two parts always sum up to the original cost.
func (l Lot) take(q Quantity) (taken, rest Lot) {
	taken, rest = l, l
	taken.Quantity = q
	taken.Cost = l.Cost.Mul(q).Div(l.Quantity)
	taken.Fees = l.Fees.Mul(q).Div(l.Quantity)
	rest.Quantity = l.Quantity.Sub(q)
	rest.Cost = l.Cost.Sub(taken.Cost)
	rest.Fees = l.Fees.Sub(taken.Fees)
	return taken, rest
}

func (l Lot) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", l.Date)
	w.Optional("ticker", l.Ticker)
	w.Append("quantity", l.Quantity)
	w.Append("unitCost", l.UnitCost().exact())
	w.Append("cost", l.Cost)
	w.Append("pricePaid", l.PricePaid())
	w.Append("feesPaid", l.Fees)
	return w.MarshalJSON()
}

// Lots is an ordered list of lots, the oldest first.
type Lots []Lot

// Quantity returns the total quantity held.
func (l Lots) Quantity() Quantity {
	var q Quantity
	for _, lot := range l {
		q = q.Add(lot.Quantity)
	}
	return q
}

// Cost returns the total cost of all the lots.
func (l Lots) Cost() Money {
	var c Money
	for _, lot := range l {
		c = c.Add(lot.Cost)
	}
	return c
}

// AverageCost returns the weighted average unit cost, zero if there are no shares.
func (l Lots) AverageCost() Money {
	q := l.Quantity()
	if q.IsZero() {
		return l.Cost()
	}
	return l.Cost().Div(q)
}

// match is the result of selling a quantity out of a list of lots.
type match struct {
	Consumed  Lots     // parts of lots consumed by the sale, oldest first.
	CostBasis Money    // cost of the consumed parts.
	Unmatched Quantity // quantity sold that no lot could cover.
	Remaining Lots     // lots left after the sale.
}

// sell consumes q units out of the lots using method.
// It never modifies l.
func (l Lots) sell(method CostBasisMethod, q Quantity) match {
	if method == AverageCost {
		return l.sellAverage(q)
	}
	return l.sellFIFO(q)
}

// sellFIFO consumes the lots from the head.
func (l Lots) sellFIFO(q Quantity) match {
	var m match
	for i, lot := range l {
		if !q.IsPositive() {
			m.Remaining = append(m.Remaining, l[i:]...)
			break
		}
		if lot.Quantity.GreaterThan(q) {
			taken, rest := lot.take(q)
			m.Consumed = append(m.Consumed, taken)
			m.Remaining = append(m.Remaining, rest)
			q = Quantity{}
			continue
		}
		m.Consumed = append(m.Consumed, lot)
		q = q.Sub(lot.Quantity)
	}
	if q.IsPositive() {
		m.Unmatched = q
	}
	for _, c := range m.Consumed {
		m.CostBasis = m.CostBasis.Add(c.Cost)
	}
	return m
}

// sellAverage consumes every lot proportionally, so that all the lots share one blended unit cost.
func (l Lots) sellAverage(q Quantity) match {
	var m match
	total := l.Quantity()
	if !total.IsPositive() {
		m.Unmatched = q
		return m
	}
	if q.GreaterThan(total) {
		m.Unmatched = q.Sub(total)
		q = total
	}
	// multiply before dividing to keep exact values whenever possible.
	m.CostBasis = l.Cost().Mul(q).Div(total)
	for _, lot := range l {
		part := lot.Quantity.Mul(q).Div(total)
		taken, rest := lot.take(part)
		m.Consumed = append(m.Consumed, taken)
		if rest.Quantity.isDust() {
			continue
		}
		m.Remaining = append(m.Remaining, rest)
	}
	return m
}
