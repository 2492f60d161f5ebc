package usecase

import (
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/shopspring/decimal"
)

// Price levels are computed in decimal so that a mark exactly on the boundary
// (entry 100, pct 0.10, mark 110) counts as reached.

func upFactor(pct float64) decimal.Decimal {
	return decimal.NewFromInt(1).Add(decimal.NewFromFloat(pct))
}

func downFactor(pct float64) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(decimal.NewFromFloat(pct))
}

// TakeProfitPrice is the level at which a leg is closed in profit:
// fill*(1+pct) for LONG, fill*(1-pct) for SHORT.
func TakeProfitPrice(side domain.Side, fill, pct float64) decimal.Decimal {
	f := decimal.NewFromFloat(fill)
	if side == domain.SideShort {
		return f.Mul(downFactor(pct))
	}
	return f.Mul(upFactor(pct))
}

// TriggerReached reports whether mark has moved pct in the position's favour.
func TriggerReached(side domain.Side, entry, mark, pct float64) bool {
	if entry <= 0 || mark <= 0 {
		return false
	}
	e := decimal.NewFromFloat(entry)
	m := decimal.NewFromFloat(mark)
	switch side {
	case domain.SideLong:
		return m.GreaterThanOrEqual(e.Mul(upFactor(pct)))
	case domain.SideShort:
		return m.LessThanOrEqual(e.Mul(downFactor(pct)))
	}
	return false
}

// StopPrice is the protective stop for a position that has reached its trigger:
// entry*(1-pct) for LONG, entry*(1+pct) for SHORT.
func StopPrice(side domain.Side, entry, pct float64) decimal.Decimal {
	e := decimal.NewFromFloat(entry)
	if side == domain.SideShort {
		return e.Mul(upFactor(pct))
	}
	return e.Mul(downFactor(pct))
}

// EntrySide is the order side that opens a position.
func EntrySide(side domain.Side) domain.OrderSide {
	if side == domain.SideShort {
		return domain.OrderSideSell
	}
	return domain.OrderSideBuy
}

// CloseSide is the order side that reduces a position.
func CloseSide(side domain.Side) domain.OrderSide {
	if side == domain.SideShort {
		return domain.OrderSideBuy
	}
	return domain.OrderSideSell
}
