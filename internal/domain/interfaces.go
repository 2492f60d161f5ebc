package domain

import "context"

// Exchange defines the interface for interacting with a futures exchange.
type Exchange interface {
	Name() string
	GetInstrument(ctx context.Context, symbol string) (*Instrument, error)
	GetMarkPrice(ctx context.Context, symbol string) (float64, error)
	GetBalance(ctx context.Context, asset string) (*Balance, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	// EnableHedgeMode switches the account to dual-side positions. Already being in
	// hedge mode is not an error.
	EnableHedgeMode(ctx context.Context) error
	PlaceOrder(ctx context.Context, req *OrderRequest) (*Order, error)
	GetOrder(ctx context.Context, symbol, orderID string) (*Order, error)
	GetPositions(ctx context.Context, symbol string) ([]*Position, error)
	CancelAllOrders(ctx context.Context, symbol string) error
}

// MarkPriceStreamer is implemented by adapters that can push mark prices.
// The callback runs on the adapter's reader goroutine until ctx is done.
type MarkPriceStreamer interface {
	SubscribeMarkPrice(ctx context.Context, symbol string, callback func(price float64)) error
}

// JournalRepository records what the bot did. It is write-mostly; nothing reads it back
// to resume a run.
type JournalRepository interface {
	SaveSession(ctx context.Context, session *HedgeSession) error
	SaveOrder(ctx context.Context, sessionID string, order *Order) error
	ListOrders(ctx context.Context, limit int) ([]*Order, error)
}

// Notifier delivers human-readable alerts.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}
