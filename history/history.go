// Package history maintains a product's price history and its derived statistics.
package history

import (
	"time"

	"github.com/shopspring/decimal"

	"pricewatch/models"
)

// Stats are the values derived from a full price history
type Stats struct {
	Lowest  decimal.Decimal
	Highest decimal.Decimal
	Average decimal.Decimal
}

// Append returns a new history with the observation added at the end and the
// statistics recomputed over every observation. The input slice is not modified.
func Append(h models.PriceHistory, price decimal.Decimal, observedAt time.Time) (models.PriceHistory, Stats) {
	next := make(models.PriceHistory, len(h), len(h)+1)
	copy(next, h)
	next = append(next, models.PriceObservation{Price: price, ObservedAt: observedAt})
	return next, Compute(next)
}

// Compute derives lowest, highest and average. The average is the exact mean
// up to decimal.DivisionPrecision digits. An empty history yields zeros.
func Compute(h models.PriceHistory) Stats {
	if len(h) == 0 {
		return Stats{Lowest: decimal.Zero, Highest: decimal.Zero, Average: decimal.Zero}
	}

	lowest := h[0].Price
	highest := h[0].Price
	sum := decimal.Zero
	for _, obs := range h {
		if obs.Price.LessThan(lowest) {
			lowest = obs.Price
		}
		if obs.Price.GreaterThan(highest) {
			highest = obs.Price
		}
		sum = sum.Add(obs.Price)
	}

	return Stats{
		Lowest:  lowest,
		Highest: highest,
		Average: sum.Div(decimal.NewFromInt(int64(len(h)))),
	}
}

// Lowest returns the minimum price, or zero for an empty history
func Lowest(h models.PriceHistory) decimal.Decimal {
	return Compute(h).Lowest
}
