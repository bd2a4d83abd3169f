package usecase

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/vitos/crypto_arbitrage/internal/domain"
)

// Bollinger is a streaming Bollinger band over the last period values,
// using the population standard deviation.
type Bollinger struct {
	period int
	k      float64
	values []float64
	pos    int
	count  int
}

func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{period: period, k: k, values: make([]float64, period)}
}

// Next feeds one value and returns the current bands.
func (b *Bollinger) Next(v float64) (upper, middle, lower float64) {
	b.values[b.pos] = v
	b.pos = (b.pos + 1) % b.period
	if b.count < b.period {
		b.count++
	}

	var sum float64
	for i := 0; i < b.count; i++ {
		sum += b.values[i]
	}
	mean := sum / float64(b.count)

	var sq float64
	for i := 0; i < b.count; i++ {
		d := b.values[i] - mean
		sq += d * d
	}
	sd := math.Sqrt(sq / float64(b.count))

	return mean + b.k*sd, mean, mean - b.k*sd
}

// Bands runs the indicator over candles in order and returns the final upper and lower
// bands truncated to places.
func Bands(candles []domain.Candle, period int, k float64, places int32) (upper, lower decimal.Decimal) {
	b := NewBollinger(period, k)
	var u, l float64
	for _, c := range candles {
		u, _, l = b.Next(c.Close.InexactFloat64())
	}
	return decimal.NewFromFloat(u).Truncate(places), decimal.NewFromFloat(l).Truncate(places)
}
