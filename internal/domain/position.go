package domain

import "time"

// Side is the position side in hedge mode.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// OrderSide is the direction of a single order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderType string

const (
	OrderTypeMarket           OrderType = "MARKET"
	OrderTypeTakeProfitMarket OrderType = "TAKE_PROFIT_MARKET"
	OrderTypeStopMarket       OrderType = "STOP_MARKET"
)

// OrderRole tags why an order was placed, for the journal.
type OrderRole string

const (
	RoleEntry      OrderRole = "ENTRY"
	RoleTakeProfit OrderRole = "TAKE_PROFIT"
	RoleStop       OrderRole = "STOP"
	RoleUnwind     OrderRole = "UNWIND"
)

// Position represents an open position on the exchange.
// Size is signed the way the exchange reports it: negative for a short in one-way terms.
type Position struct {
	Exchange      string  `json:"exchange"`
	Symbol        string  `json:"symbol"`
	Side          Side    `json:"side"`
	Size          float64 `json:"size"`
	EntryPrice    float64 `json:"entry_price"`
	CurrentPrice  float64 `json:"mark_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Leverage      int     `json:"leverage"`
}

// OrderRequest is everything an adapter needs to submit one order.
// Quantity and StopPrice are already rounded and formatted for the instrument.
type OrderRequest struct {
	Symbol       string
	Side         OrderSide
	PositionSide Side
	Type         OrderType
	Quantity     string
	StopPrice    string
	ReduceOnly   bool
}

// Order is an order as acknowledged by the exchange.
type Order struct {
	OrderID      string    `json:"order_id"`
	Exchange     string    `json:"exchange"`
	Symbol       string    `json:"symbol"`
	Side         OrderSide `json:"side"`
	PositionSide Side      `json:"position_side"`
	Type         OrderType `json:"type"`
	Role         OrderRole `json:"role,omitempty"`
	Quantity     float64   `json:"quantity"`
	Price        float64   `json:"price"`
	AvgPrice     float64   `json:"avg_price"`
	StopPrice    float64   `json:"stop_price,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
