package exchange

import (
	"testing"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/config"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c, err := New(config.ExchangeConfig{Name: "Binance", APIKey: "k", APISecret: "s"})
	require.NoError(t, err)
	assert.Equal(t, "binance", c.Name())

	c, err = New(config.ExchangeConfig{Name: "bybit", APIKey: "k", APISecret: "s"})
	require.NoError(t, err)
	assert.Equal(t, "bybit", c.Name())

	_, err = New(config.ExchangeConfig{Name: "kraken"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
