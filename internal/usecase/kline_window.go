package usecase

import (
	"context"
	"fmt"

	"github.com/vitos/crypto_arbitrage/internal/domain"
)

// KlineWindow keeps a capped, ascending candle window per symbol in a local cache
// and refreshes it with small incremental pages.
type KlineWindow struct {
	cache    domain.KlineCache
	exchange domain.Exchange
	interval string
	capacity int
	pageSize int
}

func NewKlineWindow(cache domain.KlineCache, exchange domain.Exchange, interval string, capacity, pageSize int) *KlineWindow {
	return &KlineWindow{
		cache:    cache,
		exchange: exchange,
		interval: interval,
		capacity: capacity,
		pageSize: pageSize,
	}
}

func KlineKey(symbol, interval string) string {
	return symbol + "_" + interval
}

// Load returns the refreshed window for symbol and stores it back.
func (w *KlineWindow) Load(ctx context.Context, symbol string) ([]domain.Candle, error) {
	key := KlineKey(symbol, w.interval)
	cached, found, err := w.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if !found || len(cached) == 0 {
		candles, err := w.exchange.GetCandles(ctx, symbol, w.interval, w.capacity, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s window: %w", key, err)
		}
		candles = MergeCandles(nil, candles, w.capacity)
		if err := w.cache.Put(ctx, key, candles); err != nil {
			return nil, fmt.Errorf("failed to store %s window: %w", key, err)
		}
		return candles, nil
	}

	fresh, err := w.exchange.GetCandles(ctx, symbol, w.interval, w.pageSize, cached[len(cached)-1].OpenTime)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s page: %w", key, err)
	}
	if len(fresh) == 0 {
		return cached, nil
	}

	updated := MergeCandles(cached, fresh, w.capacity)
	if err := w.cache.Put(ctx, key, updated); err != nil {
		return nil, fmt.Errorf("failed to store %s window: %w", key, err)
	}
	return updated, nil
}

// MergeCandles applies fresh candles to window. A candle with the same open time as the
// newest one replaces it (the still-open candle), newer candles are appended, older ones
// are ignored, so a page starting after a gap is appended as is. The oldest candles are
// evicted beyond capacity. window is not modified.
func MergeCandles(window, fresh []domain.Candle, capacity int) []domain.Candle {
	out := make([]domain.Candle, len(window), len(window)+len(fresh))
	copy(out, window)

	for _, c := range fresh {
		n := len(out)
		switch {
		case n > 0 && c.OpenTime == out[n-1].OpenTime:
			out[n-1] = c
		case n == 0 || c.OpenTime > out[n-1].OpenTime:
			out = append(out, c)
		}
	}

	if capacity > 0 && len(out) > capacity {
		out = out[len(out)-capacity:]
	}
	return out
}
