package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/config"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const unwindTimeout = 30 * time.Second

// HedgeService opens both legs of a hedge and records what happened to them.
type HedgeService struct {
	exchange domain.Exchange
	executor *TradeExecutor
	journal  domain.JournalRepository // optional
	notifier domain.Notifier          // optional
	cfg      config.StrategyConfig
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	session *domain.HedgeSession
}

func NewHedgeService(
	exchange domain.Exchange,
	executor *TradeExecutor,
	journal domain.JournalRepository,
	notifier domain.Notifier,
	cfg config.StrategyConfig,
	logger *zap.Logger,
) *HedgeService {
	return &HedgeService{
		exchange: exchange,
		executor: executor,
		journal:  journal,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Snapshot returns a copy of the current session, or nil before Open.
func (s *HedgeService) Snapshot() *domain.HedgeSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	if s.session.Trigger != nil {
		t := *s.session.Trigger
		cp.Trigger = &t
	}
	return &cp
}

func (s *HedgeService) update(fn func(sess *domain.HedgeSession)) *domain.HedgeSession {
	s.mu.Lock()
	fn(s.session)
	s.session.UpdatedAt = s.now()
	s.mu.Unlock()
	return s.Snapshot()
}

// Open places the LONG and SHORT entries for amountUSDT each, then a take-profit on
// each leg. On success the session is MONITORING.
func (s *HedgeService) Open(ctx context.Context, symbol string, amountUSDT float64) (*domain.HedgeSession, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol: %w", domain.ErrInvalidInput)
	}
	if amountUSDT <= 0 || math.IsNaN(amountUSDT) || math.IsInf(amountUSDT, 0) {
		return nil, fmt.Errorf("amount %v must be a positive number: %w", amountUSDT, domain.ErrInvalidInput)
	}

	now := s.now()
	s.mu.Lock()
	s.session = &domain.HedgeSession{
		ID:         uuid.NewString(),
		Exchange:   s.exchange.Name(),
		Symbol:     symbol,
		AmountUSDT: amountUSDT,
		Leverage:   s.cfg.Leverage,
		State:      domain.StateOpening,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.mu.Unlock()

	log := s.logger.With(zap.String("symbol", symbol), zap.String("exchange", s.exchange.Name()))
	log.Info("Opening hedge", zap.Float64("amount_usdt", amountUSDT), zap.Int("leverage", s.cfg.Leverage))

	inst, err := s.exchange.GetInstrument(ctx, symbol)
	if err != nil {
		return nil, s.fail(ctx, fmt.Errorf("load instrument %s: %w", symbol, err))
	}

	if s.cfg.HedgeMode {
		if err := s.exchange.EnableHedgeMode(ctx); err != nil {
			return nil, s.fail(ctx, fmt.Errorf("enable hedge mode: %w", err))
		}
	}

	mark, err := s.exchange.GetMarkPrice(ctx, symbol)
	if err != nil {
		return nil, s.fail(ctx, fmt.Errorf("mark price %s: %w", symbol, err))
	}
	if mark <= 0 {
		return nil, s.fail(ctx, fmt.Errorf("mark price %s is %v: %w", symbol, mark, domain.ErrInvalidInput))
	}

	qty := domain.FloorToStep(decimal.NewFromFloat(amountUSDT).Div(decimal.NewFromFloat(mark)), inst.StepSize)
	if !qty.IsPositive() {
		return nil, s.fail(ctx, fmt.Errorf("%v USDT at %v with step %s: %w", amountUSDT, mark, inst.StepSize, domain.ErrQuantityTooSmall))
	}

	sess := s.update(func(sess *domain.HedgeSession) {
		sess.Instrument = inst
		sess.Quantity = qty.InexactFloat64()
	})
	s.saveSession(ctx, sess)
	log.Info("Sized hedge", zap.Float64("mark_price", mark), zap.String("qty", inst.FormatQuantity(qty)))

	var placed []*domain.Order

	longOrder, err := s.executor.OpenMarket(ctx, inst, domain.SideLong, qty)
	if err != nil {
		return nil, s.fail(ctx, fmt.Errorf("long entry: %w", err))
	}
	placed = append(placed, longOrder)
	s.saveOrder(ctx, longOrder)

	shortOrder, err := s.executor.OpenMarket(ctx, inst, domain.SideShort, qty)
	if err != nil {
		return nil, s.abort(ctx, inst, "short entry", placed, err)
	}
	placed = append(placed, shortOrder)
	s.saveOrder(ctx, shortOrder)

	longFill, err := s.fillPrice(ctx, longOrder)
	if err != nil {
		return nil, s.abort(ctx, inst, "long fill price", placed, err)
	}
	shortFill, err := s.fillPrice(ctx, shortOrder)
	if err != nil {
		return nil, s.abort(ctx, inst, "short fill price", placed, err)
	}
	log.Info("Entries filled", zap.Float64("long_fill", longFill), zap.Float64("short_fill", shortFill))

	longTP, err := s.executor.PlaceTakeProfit(ctx, inst, domain.SideLong, qty, TakeProfitPrice(domain.SideLong, longFill, s.cfg.TakeProfitPct))
	if err != nil {
		return nil, s.abort(ctx, inst, "long take-profit", placed, err)
	}
	placed = append(placed, longTP)
	s.saveOrder(ctx, longTP)

	shortTP, err := s.executor.PlaceTakeProfit(ctx, inst, domain.SideShort, qty, TakeProfitPrice(domain.SideShort, shortFill, s.cfg.TakeProfitPct))
	if err != nil {
		return nil, s.abort(ctx, inst, "short take-profit", placed, err)
	}
	s.saveOrder(ctx, shortTP)

	sess = s.update(func(sess *domain.HedgeSession) {
		sess.LongEntry = longFill
		sess.ShortEntry = shortFill
		sess.LongTakeProfit = longTP.StopPrice
		sess.ShortTakeProfit = shortTP.StopPrice
		sess.State = domain.StateMonitoring
	})
	s.saveSession(ctx, sess)

	log.Info("Hedge open",
		zap.String("session_id", sess.ID),
		zap.Float64("long_tp", sess.LongTakeProfit),
		zap.Float64("short_tp", sess.ShortTakeProfit))
	s.notify(ctx, "Hedge opened", fmt.Sprintf("%s %s qty %s\nLONG %v (TP %v)\nSHORT %v (TP %v)",
		sess.Exchange, symbol, inst.FormatQuantity(qty), longFill, sess.LongTakeProfit, shortFill, sess.ShortTakeProfit))

	return sess, nil
}

// Finish records the monitor's outcome: STOPPED with the trigger, or FAILED.
func (s *HedgeService) Finish(ctx context.Context, trigger *domain.Trigger, runErr error) *domain.HedgeSession {
	if s.Snapshot() == nil {
		return nil
	}

	// Cancellation is an operator decision, the session keeps its last state.
	if runErr != nil && errors.Is(runErr, context.Canceled) {
		return s.Snapshot()
	}

	if runErr != nil {
		_ = s.fail(ctx, runErr)
		return s.Snapshot()
	}

	sess := s.update(func(sess *domain.HedgeSession) {
		sess.Trigger = trigger
		sess.State = domain.StateStopped
	})
	if trigger.StopOrder != nil {
		s.saveOrder(ctx, trigger.StopOrder)
	}
	s.saveSession(ctx, sess)

	s.logger.Info("Stop placed",
		zap.String("session_id", sess.ID),
		zap.String("symbol", sess.Symbol),
		zap.String("side", string(trigger.Side)),
		zap.Float64("entry", trigger.EntryPrice),
		zap.Float64("mark", trigger.MarkPrice),
		zap.Float64("stop", trigger.StopPrice))
	s.notify(ctx, "Stop placed", fmt.Sprintf("%s %s reached %v (entry %v), stop at %v for %v",
		sess.Symbol, trigger.Side, trigger.MarkPrice, trigger.EntryPrice, trigger.StopPrice, trigger.Quantity))
	return sess
}

// fillPrice resolves a leg's average fill: the acknowledgement first, then the order
// itself (avgPrice, then price).
func (s *HedgeService) fillPrice(ctx context.Context, order *domain.Order) (float64, error) {
	if order.AvgPrice > 0 {
		return order.AvgPrice, nil
	}
	o, err := s.exchange.GetOrder(ctx, order.Symbol, order.OrderID)
	if err != nil {
		return 0, fmt.Errorf("query order %s: %w", order.OrderID, err)
	}
	if o.AvgPrice > 0 {
		order.AvgPrice = o.AvgPrice
		return o.AvgPrice, nil
	}
	if o.Price > 0 {
		return o.Price, nil
	}
	return 0, fmt.Errorf("order %s has no fill price (status %s): %w", order.OrderID, o.Status, domain.ErrOrderRejected)
}

// abort is the failure path once at least one order is live.
func (s *HedgeService) abort(ctx context.Context, inst *domain.Instrument, step string, placed []*domain.Order, cause error) error {
	pf := &domain.PartialFailureError{Step: step, Placed: placed, Err: cause}
	if s.cfg.UnwindOnFailure {
		pf.Unwound = s.unwind(ctx, inst, placed)
	}
	return s.fail(ctx, pf)
}

// unwind cancels every open order on the symbol and market-closes the filled entries.
// It runs detached from ctx so an interrupt does not leave a half-closed hedge.
func (s *HedgeService) unwind(ctx context.Context, inst *domain.Instrument, placed []*domain.Order) bool {
	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unwindTimeout)
	defer cancel()

	log := s.logger.With(zap.String("symbol", inst.Symbol))
	log.Warn("Unwinding partial hedge", zap.Int("orders", len(placed)))

	ok := true
	if err := s.exchange.CancelAllOrders(uctx, inst.Symbol); err != nil {
		log.Error("Cancel open orders failed", zap.Error(err))
		ok = false
	}
	for _, o := range placed {
		if o.Role != domain.RoleEntry {
			continue
		}
		closeOrder, err := s.executor.ClosePosition(uctx, inst, o.PositionSide, decimal.NewFromFloat(o.Quantity))
		if err != nil {
			log.Error("Close leg failed", zap.String("side", string(o.PositionSide)), zap.Error(err))
			ok = false
			continue
		}
		s.saveOrder(uctx, closeOrder)
	}
	return ok
}

func (s *HedgeService) fail(ctx context.Context, err error) error {
	sess := s.update(func(sess *domain.HedgeSession) {
		sess.State = domain.StateFailed
		sess.Error = err.Error()
	})
	s.logger.Error("Hedge failed", zap.String("symbol", sess.Symbol), zap.Error(err))
	s.saveSession(ctx, sess)
	s.notify(ctx, "Hedge failed", sess.Symbol+": "+err.Error())
	return err
}

func (s *HedgeService) saveSession(ctx context.Context, sess *domain.HedgeSession) {
	if s.journal == nil {
		return
	}
	if err := s.journal.SaveSession(context.WithoutCancel(ctx), sess); err != nil {
		s.logger.Warn("Journal session failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

func (s *HedgeService) saveOrder(ctx context.Context, order *domain.Order) {
	if s.journal == nil || order == nil {
		return
	}
	sess := s.Snapshot()
	if err := s.journal.SaveOrder(context.WithoutCancel(ctx), sess.ID, order); err != nil {
		s.logger.Warn("Journal order failed", zap.String("order_id", order.OrderID), zap.Error(err))
	}
}

func (s *HedgeService) notify(ctx context.Context, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(context.WithoutCancel(ctx), title, message); err != nil {
		s.logger.Warn("Notification failed", zap.String("title", title), zap.Error(err))
	}
}
