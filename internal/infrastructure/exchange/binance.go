package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vitos/crypto_arbitrage/internal/domain"
)

const (
	BinanceSpotURL     = "https://api.binance.com"
	BinanceFuturesURL  = "https://fapi.binance.com"
	BinanceDeliveryURL = "https://dapi.binance.com"
)

type BinanceConfig struct {
	APIKey       string
	APISecret    string
	SpotURL      string
	FuturesURL   string
	DeliveryURL  string
	RecvWindowMs int
	Timeout      time.Duration
}

// BinanceClient talks to the spot, USD-M futures and COIN-M delivery REST APIs.
type BinanceClient struct {
	apiKey     string
	apiSecret  string
	recvWindow int
	spot       *resty.Client
	futures    *resty.Client
	delivery   *resty.Client
	now        func() time.Time
}

// APIError is the {"code","msg"} body Binance returns on rejected requests.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       int    `json:"code"`
	Msg        string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance error %d (http %d): %s", e.Code, e.HTTPStatus, e.Msg)
}

func NewBinanceClient(cfg BinanceConfig) *BinanceClient {
	if cfg.SpotURL == "" {
		cfg.SpotURL = BinanceSpotURL
	}
	if cfg.FuturesURL == "" {
		cfg.FuturesURL = BinanceFuturesURL
	}
	if cfg.DeliveryURL == "" {
		cfg.DeliveryURL = BinanceDeliveryURL
	}
	if cfg.RecvWindowMs == 0 {
		cfg.RecvWindowMs = 5000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &BinanceClient{
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		recvWindow: cfg.RecvWindowMs,
		spot:       newRestClient(cfg.SpotURL, cfg.Timeout),
		futures:    newRestClient(cfg.FuturesURL, cfg.Timeout),
		delivery:   newRestClient(cfg.DeliveryURL, cfg.Timeout),
		now:        time.Now,
	}
}

func newRestClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return resp != nil && resp.StatusCode() == http.StatusTooManyRequests
		})
}

// --- REST API ---

func (b *BinanceClient) sign(query string) string {
	h := hmac.New(sha256.New, []byte(b.apiSecret))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// signedRequest signs params and sends them in the query string for GET or as a form body otherwise.
func (b *BinanceClient) signedRequest(ctx context.Context, client *resty.Client, method, path string, params url.Values, out any) error {
	params.Set("timestamp", strconv.FormatInt(b.now().UnixMilli(), 10))
	params.Set("recvWindow", strconv.Itoa(b.recvWindow))
	query := params.Encode()
	signed := query + "&signature=" + b.sign(query)

	req := client.R().
		SetContext(ctx).
		SetHeader("X-MBX-APIKEY", b.apiKey)

	var (
		resp *resty.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = req.Get(path + "?" + signed)
	case http.MethodPost:
		resp, err = req.
			SetHeader("Content-Type", "application/x-www-form-urlencoded").
			SetBody(signed).
			Post(path)
	default:
		return errors.Errorf("unsupported method: %s", method)
	}
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	return decodeResponse(resp, out)
}

func decodeResponse(resp *resty.Response, out any) error {
	if !resp.IsSuccess() {
		apiErr := &APIError{HTTPStatus: resp.StatusCode()}
		if err := json.Unmarshal(resp.Body(), apiErr); err != nil || apiErr.Msg == "" {
			apiErr.Msg = string(resp.Body())
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "decode %s", resp.Request.URL)
	}
	return nil
}

func (b *BinanceClient) orderEndpoint(market domain.Market) (*resty.Client, string, error) {
	switch market {
	case domain.MarketSpot:
		return b.spot, "/api/v3/order", nil
	case domain.MarketFutures:
		return b.futures, "/fapi/v1/order", nil
	case domain.MarketDelivery:
		return b.delivery, "/dapi/v1/order", nil
	}
	return nil, "", errors.Errorf("no order endpoint for market %q", market)
}

// binanceOrder covers the spot, futures and delivery order payloads.
type binanceOrder struct {
	Symbol      string          `json:"symbol"`
	OrderID     int64           `json:"orderId"`
	Status      string          `json:"status"`
	Price       decimal.Decimal `json:"price"`
	ExecutedQty decimal.Decimal `json:"executedQty"`
	CumBase     decimal.Decimal `json:"cumBase"`
}

func (o binanceOrder) result() *domain.OrderResult {
	return &domain.OrderResult{
		OrderID:     strconv.FormatInt(o.OrderID, 10),
		Symbol:      o.Symbol,
		Status:      domain.OrderStatus(o.Status),
		Price:       o.Price,
		ExecutedQty: o.ExecutedQty,
		CumBase:     o.CumBase,
	}
}

// PlaceOrder sends a fill-or-kill limit order.
func (b *BinanceClient) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	client, path, err := b.orderEndpoint(req.Market)
	if err != nil {
		return nil, err
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", strings.ToUpper(string(req.Side)))
	params.Set("type", "LIMIT")
	params.Set("timeInForce", "FOK")
	params.Set("quantity", req.Quantity.String())
	params.Set("price", req.Price.String())
	params.Set("newClientOrderId", req.ClientOrderID)
	if req.Market == domain.MarketSpot {
		params.Set("newOrderRespType", "RESULT")
	}

	var order binanceOrder
	if err := b.signedRequest(ctx, client, http.MethodPost, path, params, &order); err != nil {
		return nil, err
	}
	return order.result(), nil
}

func (b *BinanceClient) GetOrder(ctx context.Context, market domain.Market, symbol, orderID string) (*domain.OrderResult, error) {
	client, path, err := b.orderEndpoint(market)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", orderID)

	var order binanceOrder
	if err := b.signedRequest(ctx, client, http.MethodGet, path, params, &order); err != nil {
		return nil, err
	}
	return order.result(), nil
}

// Transfer moves funds between wallets with the universal transfer endpoint and returns the transfer id.
func (b *BinanceClient) Transfer(ctx context.Context, req domain.TransferRequest) (string, error) {
	params := url.Values{}
	params.Set("type", string(req.Type))
	params.Set("asset", req.Asset)
	params.Set("amount", req.Amount.String())

	var result struct {
		TranID int64 `json:"tranId"`
	}
	if err := b.signedRequest(ctx, b.spot, http.MethodPost, "/sapi/v1/asset/transfer", params, &result); err != nil {
		return "", err
	}
	return strconv.FormatInt(result.TranID, 10), nil
}

// GetCandles returns spot klines in ascending open time.
func (b *BinanceClient) GetCandles(ctx context.Context, symbol, interval string, limit int, startTime int64) ([]domain.Candle, error) {
	req := b.spot.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetQueryParam("interval", interval).
		SetQueryParam("limit", strconv.Itoa(limit))
	if startTime > 0 {
		req.SetQueryParam("startTime", strconv.FormatInt(startTime, 10))
	}

	resp, err := req.Get("/api/v3/klines")
	if err != nil {
		return nil, errors.Wrap(err, "get klines")
	}

	// Format: [openTime, open, high, low, close, volume, closeTime, ...]
	var raw [][]json.RawMessage
	if err := decodeResponse(resp, &raw); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 7 {
			continue
		}
		c, err := parseKline(row)
		if err != nil {
			return nil, errors.Wrapf(err, "parse kline for %s", symbol)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseKline(row []json.RawMessage) (domain.Candle, error) {
	var c domain.Candle
	if err := json.Unmarshal(row[0], &c.OpenTime); err != nil {
		return c, err
	}
	for i, dst := range []*decimal.Decimal{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume} {
		if err := json.Unmarshal(row[i+1], dst); err != nil {
			return c, err
		}
	}
	if err := json.Unmarshal(row[6], &c.CloseTime); err != nil {
		return c, err
	}
	return c, nil
}
