package exchange

import (
	"fmt"
	"strings"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/config"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
)

// Client is what the hedge bot needs from a venue: REST trading plus a mark price stream.
type Client interface {
	domain.Exchange
	domain.MarkPriceStreamer
}

// New builds the adapter named in cfg.
func New(cfg config.ExchangeConfig) (Client, error) {
	switch strings.ToLower(cfg.Name) {
	case "binance", "":
		return NewBinanceAdapter(cfg.APIKey, cfg.APISecret, cfg.RESTEndpoint, cfg.Testnet), nil
	case "bybit":
		return NewBybitAdapter(cfg.APIKey, cfg.APISecret, cfg.RESTEndpoint, cfg.WSEndpoint, cfg.Testnet), nil
	}
	return nil, fmt.Errorf("unsupported exchange %q: %w", cfg.Name, domain.ErrInvalidInput)
}
