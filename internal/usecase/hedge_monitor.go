package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/config"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HedgeMonitor watches an open hedge until one leg reaches its trigger, then puts a
// protective stop on that leg.
type HedgeMonitor struct {
	exchange domain.Exchange
	streamer domain.MarkPriceStreamer // nil when the adapter cannot push prices
	executor *TradeExecutor
	cfg      config.StrategyConfig
	logger   *zap.Logger
}

func NewHedgeMonitor(exchange domain.Exchange, executor *TradeExecutor, cfg config.StrategyConfig, logger *zap.Logger) *HedgeMonitor {
	m := &HedgeMonitor{
		exchange: exchange,
		executor: executor,
		cfg:      cfg,
		logger:   logger,
	}
	if s, ok := exchange.(domain.MarkPriceStreamer); ok {
		m.streamer = s
	}
	return m
}

// Run polls positions every poll interval and returns once a stop has been placed.
// Pushed mark prices only decide whether to poll early.
func (m *HedgeMonitor) Run(ctx context.Context, session *domain.HedgeSession) (*domain.Trigger, error) {
	symbol := session.Symbol
	log := m.logger.With(zap.String("symbol", symbol), zap.String("session_id", session.ID))

	inst := session.Instrument
	if inst == nil {
		var err error
		if inst, err = m.exchange.GetInstrument(ctx, symbol); err != nil {
			return nil, fmt.Errorf("load instrument %s: %w", symbol, err)
		}
	}

	interval := m.cfg.PollInterval()
	if interval <= 0 {
		interval = time.Second
	}

	wake := make(chan float64, 1)
	if m.streamer != nil {
		streamCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		err := m.streamer.SubscribeMarkPrice(streamCtx, symbol, func(price float64) {
			// Keep only the latest price.
			select {
			case wake <- price:
			default:
				select {
				case <-wake:
				default:
				}
				select {
				case wake <- price:
				default:
				}
			}
		})
		if err != nil {
			log.Warn("Mark price stream unavailable, polling only", zap.Error(err))
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Monitoring hedge",
		zap.Duration("interval", interval),
		zap.Float64("trigger_pct", m.cfg.TriggerPct),
		zap.Float64("stop_pct", m.cfg.StopPct))

	var open []*domain.Position
	poll := true
	for {
		if poll {
			positions, err := m.exchange.GetPositions(ctx, symbol)
			switch {
			case err == nil:
				open = openPositions(positions)
				if len(open) == 0 {
					return nil, fmt.Errorf("%s: %w", symbol, domain.ErrNoOpenPosition)
				}
				if pos, mark := m.crossed(open, 0); pos != nil {
					return m.placeStop(ctx, inst, pos, mark)
				}
			case ctx.Err() != nil:
				return nil, ctx.Err()
			case isTransient(err):
				log.Warn("Position poll failed, retrying", zap.Error(err))
			default:
				return nil, fmt.Errorf("poll positions %s: %w", symbol, err)
			}
		}

		select {
		case <-ctx.Done():
			log.Info("Monitor cancelled")
			return nil, ctx.Err()
		case <-ticker.C:
			poll = true
		case price := <-wake:
			pos, _ := m.crossed(open, price)
			poll = pos != nil
		}
	}
}

// crossed returns the first position whose trigger is reached. A zero override uses
// each position's own mark price.
func (m *HedgeMonitor) crossed(positions []*domain.Position, override float64) (*domain.Position, float64) {
	for _, p := range positions {
		mark := p.CurrentPrice
		if override > 0 {
			mark = override
		}
		if TriggerReached(p.Side, p.EntryPrice, mark, m.cfg.TriggerPct) {
			return p, mark
		}
	}
	return nil, 0
}

func (m *HedgeMonitor) placeStop(ctx context.Context, inst *domain.Instrument, pos *domain.Position, mark float64) (*domain.Trigger, error) {
	qty := decimal.NewFromFloat(math.Abs(pos.Size))
	stop := StopPrice(pos.Side, pos.EntryPrice, m.cfg.StopPct)

	m.logger.Info("Trigger reached",
		zap.String("symbol", pos.Symbol),
		zap.String("side", string(pos.Side)),
		zap.Float64("entry", pos.EntryPrice),
		zap.Float64("mark", mark),
		zap.String("stop", stop.String()))

	order, err := m.executor.PlaceStop(ctx, inst, pos.Side, qty, stop)
	if err != nil {
		return nil, fmt.Errorf("stop for %s %s: %w", pos.Symbol, pos.Side, err)
	}

	return &domain.Trigger{
		Side:       pos.Side,
		EntryPrice: pos.EntryPrice,
		MarkPrice:  mark,
		Quantity:   math.Abs(pos.Size),
		StopPrice:  domain.FloorToStep(stop, inst.TickSize).InexactFloat64(),
		StopOrder:  order,
	}, nil
}

func openPositions(positions []*domain.Position) []*domain.Position {
	open := make([]*domain.Position, 0, len(positions))
	for _, p := range positions {
		if p != nil && p.Size != 0 {
			open = append(open, p)
		}
	}
	return open
}

// isTransient reports errors worth another poll: anything the exchange answered and
// network failures.
func isTransient(err error) bool {
	if domain.IsExchangeError(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
