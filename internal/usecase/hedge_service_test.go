package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/config"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testStrategy() config.StrategyConfig {
	return config.Defaults().Strategy
}

func newHedgeService(ex domain.Exchange, cfg config.StrategyConfig, journal domain.JournalRepository, notifier domain.Notifier) *usecase.HedgeService {
	logger := zap.NewNop()
	executor := usecase.NewTradeExecutor(ex, cfg.Leverage, logger)
	return usecase.NewHedgeService(ex, executor, journal, notifier, cfg, logger)
}

func TestHedgeService_Open(t *testing.T) {
	ex := newFakeExchange()
	journal := &fakeJournal{}
	notifier := &fakeNotifier{}
	svc := newHedgeService(ex, testStrategy(), journal, notifier)

	sess, err := svc.Open(context.Background(), " btcusdt ", 100)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", sess.Symbol)
	assert.Equal(t, domain.StateMonitoring, sess.State)
	assert.Equal(t, 0.001, sess.Quantity)
	assert.Equal(t, 65000.0, sess.LongEntry)
	assert.Equal(t, 65010.0, sess.ShortEntry)
	assert.Equal(t, 71500.0, sess.LongTakeProfit)
	assert.Equal(t, 58509.0, sess.ShortTakeProfit)
	assert.NotEmpty(t, sess.ID)
	require.NotNil(t, sess.Instrument)

	reqs := ex.placed()
	require.Len(t, reqs, 4)

	assert.Equal(t, domain.OrderTypeMarket, reqs[0].Type)
	assert.Equal(t, domain.OrderSideBuy, reqs[0].Side)
	assert.Equal(t, domain.SideLong, reqs[0].PositionSide)
	assert.Equal(t, "0.001", reqs[0].Quantity)

	assert.Equal(t, domain.OrderTypeMarket, reqs[1].Type)
	assert.Equal(t, domain.OrderSideSell, reqs[1].Side)
	assert.Equal(t, domain.SideShort, reqs[1].PositionSide)
	assert.Equal(t, "0.001", reqs[1].Quantity)

	assert.Equal(t, domain.OrderTypeTakeProfitMarket, reqs[2].Type)
	assert.Equal(t, domain.OrderSideSell, reqs[2].Side)
	assert.Equal(t, domain.SideLong, reqs[2].PositionSide)
	assert.Equal(t, "71500.0", reqs[2].StopPrice)

	assert.Equal(t, domain.OrderTypeTakeProfitMarket, reqs[3].Type)
	assert.Equal(t, domain.OrderSideBuy, reqs[3].Side)
	assert.Equal(t, domain.SideShort, reqs[3].PositionSide)
	assert.Equal(t, "58509.0", reqs[3].StopPrice)

	assert.Equal(t, []int{5, 5}, ex.leverageCalls)
	assert.Equal(t, 1, ex.hedgeModeCalls)

	require.Len(t, journal.orders, 4)
	assert.Equal(t, domain.RoleEntry, journal.orders[0].Role)
	assert.Equal(t, domain.RoleTakeProfit, journal.orders[3].Role)
	assert.Equal(t, domain.StateMonitoring, journal.sessions[len(journal.sessions)-1].State)
	assert.Equal(t, []string{"Hedge opened"}, notifier.titles)

	snap := svc.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, sess.ID, snap.ID)
}

func TestHedgeService_FillPriceFallback(t *testing.T) {
	ex := newFakeExchange()
	ex.ackFills = false
	ex.queried["ord-1"] = &domain.Order{OrderID: "ord-1", AvgPrice: 100, Status: "FILLED"}
	ex.queried["ord-2"] = &domain.Order{OrderID: "ord-2", Price: 200, Status: "FILLED"}
	ex.mark = 100
	cfg := testStrategy()
	cfg.HedgeMode = false

	svc := newHedgeService(ex, cfg, nil, nil)
	sess, err := svc.Open(context.Background(), "BTCUSDT", 100)
	require.NoError(t, err)

	assert.Equal(t, 100.0, sess.LongEntry)
	assert.Equal(t, 200.0, sess.ShortEntry)
	assert.Equal(t, 0, ex.hedgeModeCalls)

	reqs := ex.placed()
	require.Len(t, reqs, 4)
	assert.Equal(t, "1.000", reqs[0].Quantity)
	assert.Equal(t, "110.0", reqs[2].StopPrice)
	assert.Equal(t, "180.0", reqs[3].StopPrice)
}

func TestHedgeService_InvalidInput(t *testing.T) {
	for _, tc := range []struct {
		symbol string
		amount float64
	}{
		{"", 100},
		{"   ", 100},
		{"BTCUSDT", 0},
		{"BTCUSDT", -5},
		{"BTCUSDT", math.NaN()},
		{"BTCUSDT", math.Inf(1)},
	} {
		t.Run(fmt.Sprintf("%q/%v", tc.symbol, tc.amount), func(t *testing.T) {
			ex := newFakeExchange()
			svc := newHedgeService(ex, testStrategy(), nil, nil)

			_, err := svc.Open(context.Background(), tc.symbol, tc.amount)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Zero(t, ex.instCalls)
			assert.Nil(t, svc.Snapshot())
		})
	}
}

func TestHedgeService_UnknownSymbol(t *testing.T) {
	ex := newFakeExchange()
	ex.instErr = &domain.ExchangeError{Exchange: "fake", Code: -1121, Message: "Invalid symbol.", Err: domain.ErrSymbolNotFound}
	svc := newHedgeService(ex, testStrategy(), nil, nil)

	_, err := svc.Open(context.Background(), "NOPE", 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSymbolNotFound)
	assert.True(t, domain.IsExchangeError(err))
	assert.Empty(t, ex.placed())
	assert.Equal(t, domain.StateFailed, svc.Snapshot().State)
}

func TestHedgeService_QuantityTooSmall(t *testing.T) {
	ex := newFakeExchange()
	svc := newHedgeService(ex, testStrategy(), nil, nil)

	_, err := svc.Open(context.Background(), "BTCUSDT", 10)
	assert.ErrorIs(t, err, domain.ErrQuantityTooSmall)
	assert.Empty(t, ex.placed())
}

func TestHedgeService_PartialFailureLeftOpen(t *testing.T) {
	ex := newFakeExchange()
	rejected := &domain.ExchangeError{Exchange: "fake", Code: -2019, Message: "Margin is insufficient.", Err: domain.ErrOrderRejected}
	ex.placeErrs[1] = rejected
	notifier := &fakeNotifier{}
	svc := newHedgeService(ex, testStrategy(), nil, notifier)

	_, err := svc.Open(context.Background(), "BTCUSDT", 100)
	require.Error(t, err)

	var pf *domain.PartialFailureError
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, "short entry", pf.Step)
	require.Len(t, pf.Placed, 1)
	assert.Equal(t, domain.SideLong, pf.Placed[0].PositionSide)
	assert.False(t, pf.Unwound)
	assert.ErrorIs(t, err, domain.ErrOrderRejected)
	assert.Contains(t, err.Error(), "left open")

	assert.Empty(t, ex.cancelled)
	assert.Len(t, ex.placed(), 2)
	assert.Equal(t, domain.StateFailed, svc.Snapshot().State)
	assert.Equal(t, []string{"Hedge failed"}, notifier.titles)
}

func TestHedgeService_PartialFailureUnwinds(t *testing.T) {
	ex := newFakeExchange()
	ex.placeErrs[2] = &domain.ExchangeError{Exchange: "fake", Code: -2021, Message: "Order would immediately trigger.", Err: domain.ErrOrderRejected}
	journal := &fakeJournal{}
	cfg := testStrategy()
	cfg.UnwindOnFailure = true
	svc := newHedgeService(ex, cfg, journal, nil)

	_, err := svc.Open(context.Background(), "BTCUSDT", 100)
	require.Error(t, err)

	var pf *domain.PartialFailureError
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, "long take-profit", pf.Step)
	assert.Len(t, pf.Placed, 2)
	assert.True(t, pf.Unwound)

	assert.Equal(t, []string{"BTCUSDT"}, ex.cancelled)

	reqs := ex.placed()
	require.Len(t, reqs, 5)
	assert.Equal(t, domain.OrderSideSell, reqs[3].Side)
	assert.Equal(t, domain.SideLong, reqs[3].PositionSide)
	assert.True(t, reqs[3].ReduceOnly)
	assert.Equal(t, domain.OrderSideBuy, reqs[4].Side)
	assert.Equal(t, domain.SideShort, reqs[4].PositionSide)
	assert.True(t, reqs[4].ReduceOnly)

	var unwinds int
	for _, o := range journal.orders {
		if o.Role == domain.RoleUnwind {
			unwinds++
		}
	}
	assert.Equal(t, 2, unwinds)
	assert.Equal(t, domain.StateFailed, journal.sessions[len(journal.sessions)-1].State)
}

func TestHedgeService_Finish(t *testing.T) {
	ex := newFakeExchange()
	journal := &fakeJournal{}
	notifier := &fakeNotifier{}
	svc := newHedgeService(ex, testStrategy(), journal, notifier)

	_, err := svc.Open(context.Background(), "BTCUSDT", 100)
	require.NoError(t, err)

	// cancellation keeps the session as it was
	sess := svc.Finish(context.Background(), nil, context.Canceled)
	assert.Equal(t, domain.StateMonitoring, sess.State)

	trigger := &domain.Trigger{
		Side:       domain.SideLong,
		EntryPrice: 65000,
		MarkPrice:  71500,
		Quantity:   0.001,
		StopPrice:  61750,
		StopOrder:  &domain.Order{OrderID: "stop-1", Role: domain.RoleStop},
	}
	sess = svc.Finish(context.Background(), trigger, nil)
	assert.Equal(t, domain.StateStopped, sess.State)
	require.NotNil(t, sess.Trigger)
	assert.Equal(t, 61750.0, sess.Trigger.StopPrice)

	last := journal.orders[len(journal.orders)-1]
	assert.Equal(t, "stop-1", last.OrderID)
	assert.Contains(t, notifier.titles, "Stop placed")
}

func TestHedgeService_FinishWithError(t *testing.T) {
	ex := newFakeExchange()
	svc := newHedgeService(ex, testStrategy(), nil, nil)
	_, err := svc.Open(context.Background(), "BTCUSDT", 100)
	require.NoError(t, err)

	sess := svc.Finish(context.Background(), nil, domain.ErrNoOpenPosition)
	assert.Equal(t, domain.StateFailed, sess.State)
	assert.Contains(t, sess.Error, "no open position")
}
