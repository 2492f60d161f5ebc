package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/config"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/infrastructure/exchange"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config")
	symbol := flag.String("symbol", "BTCUSDT", "futures symbol")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	adapter, err := exchange.New(cfg.Exchange)
	if err != nil {
		fmt.Printf("Failed to init exchange: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sym := strings.ToUpper(*symbol)

	fmt.Printf("Testing %s interaction...\n", adapter.Name())
	if cfg.Exchange.RESTEndpoint != "" {
		fmt.Printf("Endpoint: %s\n", cfg.Exchange.RESTEndpoint)
	}
	if len(cfg.Exchange.APIKey) >= 4 {
		fmt.Printf("API Key: %s...\n", cfg.Exchange.APIKey[:4])
	}

	// Public endpoints
	inst, err := adapter.GetInstrument(ctx, sym)
	if err != nil {
		fmt.Printf("❌ Failed to get instrument: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Instrument %s: status=%s tick=%s step=%s min_qty=%s\n",
		inst.Symbol, inst.Status, inst.TickSize, inst.StepSize, inst.MinQuantity)

	price, err := adapter.GetMarkPrice(ctx, sym)
	if err != nil {
		fmt.Printf("❌ Failed to get mark price: %v\n", err)
	} else {
		fmt.Printf("✅ Mark price (%s): %f\n", sym, price)
	}

	// Private endpoints
	bal, err := adapter.GetBalance(ctx, cfg.Strategy.MarginAsset)
	if err != nil {
		fmt.Printf("❌ Failed to get balance: %v\n", err)
	} else {
		fmt.Printf("✅ Balance %s: wallet=%f available=%f\n", bal.Asset, bal.Wallet, bal.Available)
	}

	positions, err := adapter.GetPositions(ctx, sym)
	if err != nil {
		fmt.Printf("❌ Failed to get positions: %v\n", err)
		os.Exit(1)
	}
	if len(positions) == 0 {
		fmt.Printf("✅ No positions on %s\n", sym)
	}
	for _, pos := range positions {
		fmt.Printf("✅ Position %s: Size=%f, Entry=%f, Mark=%f, PnL=%f\n",
			pos.Side, pos.Size, pos.EntryPrice, pos.CurrentPrice, pos.UnrealizedPnL)
	}
}
