package domain

import "time"

type SessionState string

const (
	StateOpening    SessionState = "OPENING"
	StateMonitoring SessionState = "MONITORING"
	StateStopped    SessionState = "STOPPED"
	StateFailed     SessionState = "FAILED"
)

// HedgeSession is one run of the bot: both legs, their take-profits and the final stop.
type HedgeSession struct {
	ID              string       `json:"id"`
	Exchange        string       `json:"exchange"`
	Symbol          string       `json:"symbol"`
	Instrument      *Instrument  `json:"instrument,omitempty"`
	AmountUSDT      float64      `json:"amount_usdt"`
	Leverage        int          `json:"leverage"`
	Quantity        float64      `json:"quantity"`
	LongEntry       float64      `json:"long_entry"`
	ShortEntry      float64      `json:"short_entry"`
	LongTakeProfit  float64      `json:"long_take_profit"`
	ShortTakeProfit float64      `json:"short_take_profit"`
	State           SessionState `json:"state"`
	Trigger         *Trigger     `json:"trigger,omitempty"`
	Error           string       `json:"error,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Trigger describes the position that crossed its profit threshold and the stop placed for it.
type Trigger struct {
	Side       Side    `json:"side"`
	EntryPrice float64 `json:"entry_price"`
	MarkPrice  float64 `json:"mark_price"`
	Quantity   float64 `json:"quantity"`
	StopPrice  float64 `json:"stop_price"`
	StopOrder  *Order  `json:"stop_order,omitempty"`
}
