package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/vitos/crypto_arbitrage/internal/domain"
)

// MockStrategyRepo is an in-memory domain.StrategyRepository.
type MockStrategyRepo struct {
	mu         sync.Mutex
	Strategies map[int64]domain.Strategy
	Steps      map[int64][]domain.StrategyStep
	Records    []domain.StepExecutionRecord
	nextID     int64
	CreateErr  error
}

func NewMockStrategyRepo(strategies ...domain.Strategy) *MockStrategyRepo {
	r := &MockStrategyRepo{
		Strategies: make(map[int64]domain.Strategy),
		Steps:      make(map[int64][]domain.StrategyStep),
	}
	for _, st := range strategies {
		r.Strategies[st.ID] = st
	}
	return r
}

func (r *MockStrategyRepo) ListStrategiesByStatus(ctx context.Context, status domain.StrategyStatus) ([]domain.Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Strategy
	for _, st := range r.Strategies {
		if st.Status == status {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MockStrategyRepo) UpdateStrategyStatus(ctx context.Context, id int64, status domain.StrategyStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.Strategies[id]
	if !ok {
		return domain.ErrNotFound
	}
	st.Status = status
	r.Strategies[id] = st
	return nil
}

func (r *MockStrategyRepo) CreateSteps(ctx context.Context, steps []domain.StrategyStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	for _, s := range steps {
		r.nextID++
		s.ID = r.nextID
		r.Steps[s.StrategyID] = append(r.Steps[s.StrategyID], s)
	}
	return nil
}

func (r *MockStrategyRepo) ListSteps(ctx context.Context, strategyID int64) ([]domain.StrategyStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.StrategyStep(nil), r.Steps[strategyID]...), nil
}

func (r *MockStrategyRepo) UpdateStep(ctx context.Context, u domain.StepUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sid, steps := range r.Steps {
		for i := range steps {
			if steps[i].ID == u.ID {
				steps[i].Status = u.Status
				steps[i].ExecutedAmount = u.ExecutedAmount
				steps[i].OrderID = u.OrderID
				r.Steps[sid] = steps
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r *MockStrategyRepo) InsertRecord(ctx context.Context, rec *domain.StepExecutionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Records {
		if existing.Market == rec.Market && existing.Symbol == rec.Symbol && existing.OrderID == rec.OrderID {
			return fmt.Errorf("duplicate order id %s on %s %s", rec.OrderID, rec.Market, rec.Symbol)
		}
	}
	r.nextID++
	rec.ID = r.nextID
	r.Records = append(r.Records, *rec)
	return nil
}

func (r *MockStrategyRepo) UpdateRecord(ctx context.Context, u domain.RecordUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.Records {
		if r.Records[i].StepID == u.StepID && r.Records[i].OrderID == u.OrderID {
			r.Records[i].Status = u.Status
			r.Records[i].ExecutedAmount = u.ExecutedAmount
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *MockStrategyRepo) ListRecords(ctx context.Context, strategyID int64) ([]domain.StepExecutionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StepExecutionRecord
	for _, rec := range r.Records {
		if rec.StrategyID == strategyID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// MockSnapshots serves diff-rate snapshots by id.
type MockSnapshots struct {
	Snaps map[int64]*domain.DiffRateSnapshot
}

func (m *MockSnapshots) GetSnapshot(ctx context.Context, diffRateID int64) (*domain.DiffRateSnapshot, error) {
	snap, ok := m.Snaps[diffRateID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return snap, nil
}

// MockExchange fills or kills every order with FillStatus and remembers the results for GetOrder.
type MockExchange struct {
	mu         sync.Mutex
	FillStatus domain.OrderStatus
	CumBase    decimal.Decimal
	PlaceErr   error
	Placed     []domain.OrderRequest
	Transfers  []domain.TransferRequest
	Orders     map[string]*domain.OrderResult
	GetCalls   int
	nextID     int

	CandleFn    func(symbol, interval string, limit int, startTime int64) []domain.Candle
	CandleCalls []CandleCall
}

type CandleCall struct {
	Symbol    string
	Limit     int
	StartTime int64
}

func NewMockExchange(status domain.OrderStatus) *MockExchange {
	return &MockExchange{FillStatus: status, Orders: make(map[string]*domain.OrderResult)}
}

func (m *MockExchange) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PlaceErr != nil {
		return nil, m.PlaceErr
	}
	m.Placed = append(m.Placed, req)
	m.nextID++
	res := &domain.OrderResult{
		OrderID: fmt.Sprintf("ord-%d", m.nextID),
		Symbol:  req.Symbol,
		Status:  m.FillStatus,
		Price:   req.Price,
	}
	if m.FillStatus.Filled() {
		res.ExecutedQty = req.Quantity
		res.CumBase = m.CumBase
	}
	m.Orders[res.OrderID] = res
	cp := *res
	return &cp, nil
}

func (m *MockExchange) GetOrder(ctx context.Context, market domain.Market, symbol, orderID string) (*domain.OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	res, ok := m.Orders[orderID]
	if !ok {
		return nil, errors.New("unknown order")
	}
	cp := *res
	return &cp, nil
}

func (m *MockExchange) Transfer(ctx context.Context, req domain.TransferRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transfers = append(m.Transfers, req)
	m.nextID++
	return fmt.Sprintf("tr-%d", m.nextID), nil
}

func (m *MockExchange) GetCandles(ctx context.Context, symbol, interval string, limit int, startTime int64) ([]domain.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CandleCalls = append(m.CandleCalls, CandleCall{Symbol: symbol, Limit: limit, StartTime: startTime})
	if m.CandleFn == nil {
		return nil, nil
	}
	return m.CandleFn(symbol, interval, limit, startTime), nil
}

// MockPriceCache is an in-memory domain.PriceCache.
type MockPriceCache struct {
	Prices map[string]decimal.Decimal
	Err    error
}

func (m *MockPriceCache) PublishTickers(ctx context.Context, market domain.Market, tickers []domain.Ticker) error {
	for _, t := range tickers {
		m.Prices[string(market)+":"+t.Symbol] = t.Close
	}
	return nil
}

func (m *MockPriceCache) GetPrice(ctx context.Context, market domain.Market, symbol string) (decimal.Decimal, bool, error) {
	if m.Err != nil {
		return decimal.Zero, false, m.Err
	}
	p, ok := m.Prices[string(market)+":"+symbol]
	return p, ok, nil
}

// MockDiffRateRepo is an in-memory domain.DiffRateRepository.
type MockDiffRateRepo struct {
	Rates      []domain.DiffRate
	Snapshots  map[int64]domain.DiffRateSnapshot
	History    []domain.DiffRateHistory
	HistoryErr error
}

func (m *MockDiffRateRepo) ListEnabledDiffRates(ctx context.Context) ([]domain.DiffRate, error) {
	var out []domain.DiffRate
	for _, d := range m.Rates {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockDiffRateRepo) GetSnapshot(ctx context.Context, diffRateID int64) (*domain.DiffRateSnapshot, error) {
	snap, ok := m.Snapshots[diffRateID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &snap, nil
}

func (m *MockDiffRateRepo) ListSnapshots(ctx context.Context) ([]domain.DiffRateSnapshot, error) {
	var out []domain.DiffRateSnapshot
	for _, s := range m.Snapshots {
		out = append(out, s)
	}
	return out, nil
}

func (m *MockDiffRateRepo) UpsertSnapshot(ctx context.Context, snap *domain.DiffRateSnapshot) error {
	m.Snapshots[snap.DiffRateID] = *snap
	return nil
}

func (m *MockDiffRateRepo) InsertHistory(ctx context.Context, h *domain.DiffRateHistory) error {
	if m.HistoryErr != nil {
		return m.HistoryErr
	}
	m.History = append(m.History, *h)
	return nil
}

func (m *MockDiffRateRepo) ListHistory(ctx context.Context, diffRateID int64, limit int) ([]domain.DiffRateHistory, error) {
	var out []domain.DiffRateHistory
	for i := len(m.History) - 1; i >= 0 && len(out) < limit; i-- {
		if m.History[i].DiffRateID == diffRateID {
			out = append(out, m.History[i])
		}
	}
	return out, nil
}

// MockStableCoinRepo is an in-memory domain.StableCoinRepository.
type MockStableCoinRepo struct {
	Positions []domain.StableCoinPosition
	Trades    []domain.StableCoinTrade
}

func (m *MockStableCoinRepo) ListPositionsByStatus(ctx context.Context, status domain.PositionStatus) ([]domain.StableCoinPosition, error) {
	var out []domain.StableCoinPosition
	for _, p := range m.Positions {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockStableCoinRepo) InsertTrade(ctx context.Context, t *domain.StableCoinTrade) error {
	t.ID = int64(len(m.Trades) + 1)
	m.Trades = append(m.Trades, *t)
	return nil
}

func (m *MockStableCoinRepo) ListRecentTrades(ctx context.Context, positionID int64, limit int) ([]domain.StableCoinTrade, error) {
	var out []domain.StableCoinTrade
	for i := len(m.Trades) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Trades[i].PositionID == positionID {
			out = append(out, m.Trades[i])
		}
	}
	return out, nil
}

func (m *MockStableCoinRepo) LatestFilledTrade(ctx context.Context, positionID int64) (*domain.StableCoinTrade, error) {
	for i := len(m.Trades) - 1; i >= 0; i-- {
		if m.Trades[i].PositionID == positionID && m.Trades[i].Status.Filled() {
			t := m.Trades[i]
			return &t, nil
		}
	}
	return nil, nil
}

// MockKlineCache is an in-memory domain.KlineCache.
type MockKlineCache struct {
	Windows map[string][]domain.Candle
	Puts    int
}

func (m *MockKlineCache) Get(ctx context.Context, key string) ([]domain.Candle, bool, error) {
	w, ok := m.Windows[key]
	return append([]domain.Candle(nil), w...), ok, nil
}

func (m *MockKlineCache) Put(ctx context.Context, key string, candles []domain.Candle) error {
	m.Puts++
	m.Windows[key] = append([]domain.Candle(nil), candles...)
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
