package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/vitos/crypto_arbitrage/internal/domain"
)

// PriceCache publishes tickers into one Redis hash per market, "{market}:price",
// with the symbol as field and the raw ticker JSON as value.
type PriceCache struct {
	client *redis.Client
}

func NewPriceCache(client *redis.Client) *PriceCache {
	return &PriceCache{client: client}
}

func PriceKey(market domain.Market) string {
	return fmt.Sprintf("%s:price", market)
}

func (c *PriceCache) PublishTickers(ctx context.Context, market domain.Market, tickers []domain.Ticker) error {
	if len(tickers) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(tickers)*2)
	for _, t := range tickers {
		raw := t.Raw
		if len(raw) == 0 {
			var err error
			raw, err = json.Marshal(miniTicker{Symbol: t.Symbol, Close: t.Close.String()})
			if err != nil {
				return err
			}
		}
		values = append(values, t.Symbol, string(raw))
	}
	return c.client.HSet(ctx, PriceKey(market), values...).Err()
}

func (c *PriceCache) GetPrice(ctx context.Context, market domain.Market, symbol string) (decimal.Decimal, bool, error) {
	raw, err := c.client.HGet(ctx, PriceKey(market), symbol).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}

	var t miniTicker
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return decimal.Zero, false, fmt.Errorf("bad ticker for %s %s: %w", market, symbol, err)
	}
	price, err := decimal.NewFromString(t.Close)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("bad close price for %s %s: %w", market, symbol, err)
	}
	return price, true, nil
}

// miniTicker is the subset of the exchange mini ticker payload read back from the cache.
type miniTicker struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
}
