package domain

import "github.com/shopspring/decimal"

// Instrument is the exchange metadata needed to size and price orders on a symbol.
type Instrument struct {
	Symbol      string          `json:"symbol"`
	BaseAsset   string          `json:"base_asset"`
	QuoteAsset  string          `json:"quote_asset"`
	Status      string          `json:"status"`
	TickSize    decimal.Decimal `json:"tick_size"`
	StepSize    decimal.Decimal `json:"step_size"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
}

// RoundQuantity floors qty to the instrument's step size.
func (i *Instrument) RoundQuantity(qty float64) decimal.Decimal {
	return FloorToStep(decimal.NewFromFloat(qty), i.StepSize)
}

// RoundPrice floors price to the instrument's tick size.
func (i *Instrument) RoundPrice(price float64) decimal.Decimal {
	return FloorToStep(decimal.NewFromFloat(price), i.TickSize)
}

// FormatQuantity renders qty with as many decimals as the step size carries.
func (i *Instrument) FormatQuantity(qty decimal.Decimal) string {
	return FormatToStep(qty, i.StepSize)
}

// FormatPrice renders price with as many decimals as the tick size carries.
func (i *Instrument) FormatPrice(price decimal.Decimal) string {
	return FormatToStep(price, i.TickSize)
}

type Balance struct {
	Asset     string  `json:"asset"`
	Wallet    float64 `json:"wallet"`
	Available float64 `json:"available"`
}
