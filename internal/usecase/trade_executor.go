package usecase

import (
	"context"
	"fmt"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TradeExecutor turns sized intents into exchange orders. It owns rounding to the
// instrument's step and tick so callers can pass raw values.
type TradeExecutor struct {
	exchange domain.Exchange
	leverage int
	logger   *zap.Logger
}

func NewTradeExecutor(exchange domain.Exchange, leverage int, logger *zap.Logger) *TradeExecutor {
	return &TradeExecutor{
		exchange: exchange,
		leverage: leverage,
		logger:   logger,
	}
}

// OpenMarket sets leverage and opens side with a market order.
func (e *TradeExecutor) OpenMarket(ctx context.Context, inst *domain.Instrument, side domain.Side, qty decimal.Decimal) (*domain.Order, error) {
	if err := validSide(side); err != nil {
		return nil, err
	}
	q, err := e.quantity(inst, side, qty)
	if err != nil {
		return nil, err
	}

	if e.leverage > 0 {
		if err := e.exchange.SetLeverage(ctx, inst.Symbol, e.leverage); err != nil {
			return nil, fmt.Errorf("set leverage %dx on %s: %w", e.leverage, inst.Symbol, err)
		}
	}

	return e.submit(ctx, domain.RoleEntry, &domain.OrderRequest{
		Symbol:       inst.Symbol,
		Side:         EntrySide(side),
		PositionSide: side,
		Type:         domain.OrderTypeMarket,
		Quantity:     inst.FormatQuantity(q),
	})
}

// PlaceTakeProfit closes side at price (floored to tick) via TAKE_PROFIT_MARKET.
func (e *TradeExecutor) PlaceTakeProfit(ctx context.Context, inst *domain.Instrument, side domain.Side, qty, price decimal.Decimal) (*domain.Order, error) {
	return e.conditional(ctx, inst, side, domain.OrderTypeTakeProfitMarket, domain.RoleTakeProfit, qty, price)
}

// PlaceStop closes side at price (floored to tick) via STOP_MARKET.
func (e *TradeExecutor) PlaceStop(ctx context.Context, inst *domain.Instrument, side domain.Side, qty, price decimal.Decimal) (*domain.Order, error) {
	return e.conditional(ctx, inst, side, domain.OrderTypeStopMarket, domain.RoleStop, qty, price)
}

// ClosePosition market-closes qty of side.
func (e *TradeExecutor) ClosePosition(ctx context.Context, inst *domain.Instrument, side domain.Side, qty decimal.Decimal) (*domain.Order, error) {
	if err := validSide(side); err != nil {
		return nil, err
	}
	q, err := e.quantity(inst, side, qty)
	if err != nil {
		return nil, err
	}
	return e.submit(ctx, domain.RoleUnwind, &domain.OrderRequest{
		Symbol:       inst.Symbol,
		Side:         CloseSide(side),
		PositionSide: side,
		Type:         domain.OrderTypeMarket,
		Quantity:     inst.FormatQuantity(q),
		ReduceOnly:   true,
	})
}

func (e *TradeExecutor) conditional(ctx context.Context, inst *domain.Instrument, side domain.Side, typ domain.OrderType, role domain.OrderRole, qty, price decimal.Decimal) (*domain.Order, error) {
	if err := validSide(side); err != nil {
		return nil, err
	}
	q, err := e.quantity(inst, side, qty)
	if err != nil {
		return nil, err
	}
	p := domain.FloorToStep(price, inst.TickSize)
	if !p.IsPositive() {
		return nil, fmt.Errorf("%s %s trigger price %s: %w", inst.Symbol, typ, price, domain.ErrInvalidInput)
	}

	return e.submit(ctx, role, &domain.OrderRequest{
		Symbol:       inst.Symbol,
		Side:         CloseSide(side),
		PositionSide: side,
		Type:         typ,
		Quantity:     inst.FormatQuantity(q),
		StopPrice:    inst.FormatPrice(p),
	})
}

func (e *TradeExecutor) quantity(inst *domain.Instrument, side domain.Side, qty decimal.Decimal) (decimal.Decimal, error) {
	q := domain.FloorToStep(qty, inst.StepSize)
	if !q.IsPositive() {
		return q, fmt.Errorf("%s %s qty %s with step %s: %w", inst.Symbol, side, qty, inst.StepSize, domain.ErrQuantityTooSmall)
	}
	return q, nil
}

func (e *TradeExecutor) submit(ctx context.Context, role domain.OrderRole, req *domain.OrderRequest) (*domain.Order, error) {
	order, err := e.exchange.PlaceOrder(ctx, req)
	if err != nil {
		e.logger.Error("Order failed",
			zap.String("symbol", req.Symbol),
			zap.String("role", string(role)),
			zap.String("side", string(req.Side)),
			zap.String("position_side", string(req.PositionSide)),
			zap.String("qty", req.Quantity),
			zap.Error(err))
		return nil, fmt.Errorf("%s %s %s: %w", role, req.PositionSide, req.Type, err)
	}
	order.Role = role

	e.logger.Info("Order placed",
		zap.String("symbol", req.Symbol),
		zap.String("role", string(role)),
		zap.String("order_id", order.OrderID),
		zap.String("side", string(req.Side)),
		zap.String("position_side", string(req.PositionSide)),
		zap.String("qty", req.Quantity),
		zap.String("stop_price", req.StopPrice))
	return order, nil
}

func validSide(side domain.Side) error {
	if side != domain.SideLong && side != domain.SideShort {
		return fmt.Errorf("invalid side %q: %w", side, domain.ErrInvalidInput)
	}
	return nil
}
