package exchange

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/vitos/crypto_arbitrage/internal/domain"
	"go.uber.org/zap"
)

// TickerSink receives decoded tickers for one market.
type TickerSink interface {
	PublishTickers(ctx context.Context, market domain.Market, tickers []domain.Ticker) error
}

// TickerStream follows a "!miniTicker@arr" stream and forwards every batch to the sink.
// It reconnects after read errors until the context is cancelled.
type TickerStream struct {
	market         domain.Market
	url            string
	sink           TickerSink
	logger         *zap.Logger
	ReconnectDelay time.Duration
}

func NewTickerStream(market domain.Market, url string, sink TickerSink, logger *zap.Logger) *TickerStream {
	return &TickerStream{
		market:         market,
		url:            url,
		sink:           sink,
		logger:         logger.With(zap.String("market", string(market))),
		ReconnectDelay: 3 * time.Second,
	}
}

func (s *TickerStream) Run(ctx context.Context) {
	for {
		if err := s.consume(ctx); err != nil {
			s.logger.Warn("Ticker stream disconnected", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.ReconnectDelay):
		}
	}
}

func (s *TickerStream) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	s.logger.Info("Ticker stream connected", zap.String("url", s.url))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		tickers, err := ParseMiniTickers(message)
		if err != nil {
			s.logger.Warn("Failed to parse mini tickers", zap.Error(err))
			continue
		}
		if err := s.sink.PublishTickers(ctx, s.market, tickers); err != nil {
			s.logger.Error("Failed to publish tickers", zap.Error(err), zap.Int("count", len(tickers)))
		}
	}
}

// ParseMiniTickers decodes an array of 24h mini tickers, keeping each raw payload.
func ParseMiniTickers(message []byte) ([]domain.Ticker, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(message, &items); err != nil {
		return nil, err
	}

	tickers := make([]domain.Ticker, 0, len(items))
	for _, item := range items {
		var t struct {
			Symbol string          `json:"s"`
			Close  decimal.Decimal `json:"c"`
		}
		if err := json.Unmarshal(item, &t); err != nil {
			return nil, err
		}
		if t.Symbol == "" {
			continue
		}
		tickers = append(tickers, domain.Ticker{Symbol: t.Symbol, Close: t.Close, Raw: item})
	}
	return tickers, nil
}
