package history

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func historyOf(prices ...string) models.PriceHistory {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := make(models.PriceHistory, 0, len(prices))
	for i, p := range prices {
		h = append(h, models.PriceObservation{Price: d(p), ObservedAt: start.Add(time.Duration(i) * time.Hour)})
	}
	return h
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		history models.PriceHistory
		lowest  string
		highest string
		average string
	}{
		{"empty", nil, "0", "0", "0"},
		{"single", historyOf("19.99"), "19.99", "19.99", "19.99"},
		{"several", historyOf("100", "80", "120"), "80", "120", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := Compute(tt.history)
			assert.True(t, d(tt.lowest).Equal(stats.Lowest), "lowest %s", stats.Lowest)
			assert.True(t, d(tt.highest).Equal(stats.Highest), "highest %s", stats.Highest)
			assert.True(t, d(tt.average).Equal(stats.Average), "average %s", stats.Average)
		})
	}
}

func TestCompute_AverageIsMean(t *testing.T) {
	tests := []struct {
		name    string
		history models.PriceHistory
	}{
		{"repeating third", historyOf("1", "1", "2")},
		{"cents", historyOf("10", "10", "11")},
		{"mixed", historyOf("19.99", "24.49", "17.01", "21.37", "20")},
	}

	tolerance := d("0.000000001")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := decimal.Zero
			for _, obs := range tt.history {
				sum = sum.Add(obs.Price)
			}
			n := decimal.NewFromInt(int64(len(tt.history)))

			avg := Compute(tt.history).Average
			diff := avg.Mul(n).Sub(sum).Abs()
			assert.True(t, diff.LessThanOrEqual(tolerance), "average %s over %d prices summing to %s", avg, len(tt.history), sum)
		})
	}

	avg := Compute(historyOf("1", "1", "2")).Average
	assert.False(t, avg.Equal(d("1.33")), "average must not be rounded to cents")
}

func TestAppend(t *testing.T) {
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	original := historyOf("100", "80")

	next, stats := Append(original, d("90"), at)

	require.Len(t, next, 3)
	assert.Len(t, original, 2, "input history must not grow")
	assert.True(t, d("90").Equal(next[2].Price))
	assert.Equal(t, at, next[2].ObservedAt)
	assert.True(t, d("80").Equal(stats.Lowest))
	assert.True(t, d("100").Equal(stats.Highest))
	assert.True(t, d("90").Equal(stats.Average))
}

func TestAppend_DoesNotAlias(t *testing.T) {
	base := make(models.PriceHistory, 1, 10)
	base[0] = models.PriceObservation{Price: d("1")}

	a, _ := Append(base, d("2"), time.Time{})
	b, _ := Append(base, d("3"), time.Time{})

	assert.True(t, d("2").Equal(a[1].Price))
	assert.True(t, d("3").Equal(b[1].Price))
}

func TestAppend_StatsMatchCompute(t *testing.T) {
	h := historyOf("5", "7.25", "3.10", "12")
	next, stats := Append(h, d("6.5"), time.Now())

	assert.Equal(t, Compute(next), stats)
	for _, obs := range next {
		assert.True(t, stats.Lowest.LessThanOrEqual(obs.Price))
		assert.True(t, stats.Highest.GreaterThanOrEqual(obs.Price))
	}
}

func TestLowest(t *testing.T) {
	assert.True(t, Lowest(nil).IsZero())
	assert.True(t, d("3.10").Equal(Lowest(historyOf("5", "3.10", "12"))))
}
