package usecase_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/shopspring/decimal"
)

func btcInstrument() *domain.Instrument {
	return &domain.Instrument{
		Symbol:      "BTCUSDT",
		BaseAsset:   "BTC",
		QuoteAsset:  "USDT",
		Status:      "TRADING",
		TickSize:    decimal.RequireFromString("0.1"),
		StepSize:    decimal.RequireFromString("0.001"),
		MinQuantity: decimal.RequireFromString("0.001"),
	}
}

// fakeExchange is an in-memory domain.Exchange that records every call.
type fakeExchange struct {
	mu sync.Mutex

	inst    *domain.Instrument
	instErr error
	mark    float64

	// fills is the avg price reported in the entry acknowledgement when ackFills is set.
	fills    map[domain.Side]float64
	ackFills bool
	// queried orders by id, used when the acknowledgement carries no avg price
	queried map[string]*domain.Order

	placeErrs map[int]error // PlaceOrder call index -> error

	positions [][]*domain.Position // successive GetPositions answers, the last one repeats
	posErrs   []error

	requests       []*domain.OrderRequest
	leverageCalls  []int
	hedgeModeCalls int
	cancelled      []string
	polls          int
	instCalls      int
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		inst:      btcInstrument(),
		mark:      65432.1,
		fills:     map[domain.Side]float64{domain.SideLong: 65000, domain.SideShort: 65010},
		ackFills:  true,
		queried:   make(map[string]*domain.Order),
		placeErrs: make(map[int]error),
	}
}

func (f *fakeExchange) Name() string { return "fake" }

func (f *fakeExchange) GetInstrument(ctx context.Context, symbol string) (*domain.Instrument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instCalls++
	if f.instErr != nil {
		return nil, f.instErr
	}
	if symbol != f.inst.Symbol {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrSymbolNotFound)
	}
	return f.inst, nil
}

func (f *fakeExchange) GetMarkPrice(ctx context.Context, symbol string) (float64, error) {
	return f.mark, nil
}

func (f *fakeExchange) GetBalance(ctx context.Context, asset string) (*domain.Balance, error) {
	return &domain.Balance{Asset: asset, Wallet: 1000, Available: 1000}, nil
}

func (f *fakeExchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leverageCalls = append(f.leverageCalls, leverage)
	return nil
}

func (f *fakeExchange) EnableHedgeMode(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hedgeModeCalls++
	return nil
}

func (f *fakeExchange) PlaceOrder(ctx context.Context, req *domain.OrderRequest) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := len(f.requests)
	f.requests = append(f.requests, req)
	if err := f.placeErrs[idx]; err != nil {
		return nil, err
	}

	qty, _ := strconv.ParseFloat(req.Quantity, 64)
	stop, _ := strconv.ParseFloat(req.StopPrice, 64)
	order := &domain.Order{
		OrderID:      fmt.Sprintf("ord-%d", idx+1),
		Exchange:     f.Name(),
		Symbol:       req.Symbol,
		Side:         req.Side,
		PositionSide: req.PositionSide,
		Type:         req.Type,
		Quantity:     qty,
		StopPrice:    stop,
		Status:       "NEW",
	}
	if req.Type == domain.OrderTypeMarket && f.ackFills {
		order.AvgPrice = f.fills[req.PositionSide]
		order.Status = "FILLED"
	}
	return order, nil
}

func (f *fakeExchange) GetOrder(ctx context.Context, symbol, orderID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.queried[orderID]
	if !ok {
		return nil, &domain.ExchangeError{Exchange: f.Name(), Code: -2013, Message: "Order does not exist."}
	}
	return o, nil
}

func (f *fakeExchange) GetPositions(ctx context.Context, symbol string) ([]*domain.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.polls
	f.polls++
	if idx < len(f.posErrs) && f.posErrs[idx] != nil {
		return nil, f.posErrs[idx]
	}
	if len(f.positions) == 0 {
		return nil, nil
	}
	if idx >= len(f.positions) {
		idx = len(f.positions) - 1
	}
	return f.positions[idx], nil
}

func (f *fakeExchange) CancelAllOrders(ctx context.Context, symbol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, symbol)
	return nil
}

func (f *fakeExchange) placed() []*domain.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.OrderRequest(nil), f.requests...)
}

func (f *fakeExchange) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

// streamingExchange adds a mark price stream the test drives by hand.
type streamingExchange struct {
	*fakeExchange
	subscribed chan func(float64)
}

func (s *streamingExchange) SubscribeMarkPrice(ctx context.Context, symbol string, callback func(price float64)) error {
	s.subscribed <- callback
	return nil
}

type fakeJournal struct {
	mu       sync.Mutex
	sessions []domain.HedgeSession
	orders   []*domain.Order
}

func (j *fakeJournal) SaveSession(ctx context.Context, session *domain.HedgeSession) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sessions = append(j.sessions, *session)
	return nil
}

func (j *fakeJournal) SaveOrder(ctx context.Context, sessionID string, order *domain.Order) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.orders = append(j.orders, order)
	return nil
}

func (j *fakeJournal) ListOrders(ctx context.Context, limit int) ([]*domain.Order, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.orders, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *fakeNotifier) Notify(ctx context.Context, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return nil
}
