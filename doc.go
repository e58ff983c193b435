// Package tradebook turns broker-exported trades, fees and position reports into
// matched disposals, open positions, cash balances and tax lots.
//
// The core functionalities include:
//   - Lot Ledger: per-ticker matching of sells against previously bought lots,
//     with a selectable cost-basis method (FIFO or weighted average).
//   - Cash & Currency Aggregation: per-currency cash balances and totals of
//     realized profit, fees and dividends.
//   - Tax Lots: an independent FIFO pass classifying every disposal as short or
//     long term, estimating liabilities, detecting wash sales and proposing
//     tax-loss harvesting and other optimizations.
//   - Performance Metrics: ROI, annualized return, win/loss counts and average
//     holding period.
//
// Everything in this package is a pure computation over an in-memory [Records]
// snapshot. Exchange rates and market prices are resolved beforehand (see the
// oracle package) and handed in as plain maps, so [Calculator.Calculate] never
// blocks and always returns the same result for the same input.
package tradebook
