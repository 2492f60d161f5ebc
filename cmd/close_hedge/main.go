package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/config"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/infrastructure/exchange"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/infrastructure/storage"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/usecase"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config")
	symbol := flag.String("symbol", "", "futures symbol (defaults to the last journaled session)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sym := strings.ToUpper(strings.TrimSpace(*symbol))
	if sym == "" {
		sym = lastSessionSymbol(ctx, cfg.Journal.Path)
	}
	if sym == "" {
		fmt.Println("No symbol given and no journaled session found; use -symbol")
		os.Exit(1)
	}

	adapter, err := exchange.New(cfg.Exchange)
	if err != nil {
		fmt.Printf("Failed to init exchange: %v\n", err)
		os.Exit(1)
	}
	executor := usecase.NewTradeExecutor(adapter, 0, zap.NewNop())

	inst, err := adapter.GetInstrument(ctx, sym)
	if err != nil {
		fmt.Printf("❌ Failed to get instrument: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Cancelling open orders on %s...\n", sym)
	if err := adapter.CancelAllOrders(ctx, sym); err != nil {
		fmt.Printf("❌ Failed to cancel orders: %v\n", err)
	} else {
		fmt.Println("✅ Open orders cancelled")
	}

	positions, err := adapter.GetPositions(ctx, sym)
	if err != nil {
		fmt.Printf("❌ Failed to get positions: %v\n", err)
		os.Exit(1)
	}

	failed := false
	for _, pos := range positions {
		if pos.Size == 0 {
			continue
		}
		fmt.Printf("Closing %s %f (entry %f)...\n", pos.Side, math.Abs(pos.Size), pos.EntryPrice)
		order, err := executor.ClosePosition(ctx, inst, pos.Side, decimal.NewFromFloat(math.Abs(pos.Size)))
		if err != nil {
			fmt.Printf("❌ Failed to close %s: %v\n", pos.Side, err)
			failed = true
			continue
		}
		fmt.Printf("✅ %s closed (order %s)\n", pos.Side, order.OrderID)
	}
	if failed {
		os.Exit(1)
	}
}

func lastSessionSymbol(ctx context.Context, journalPath string) string {
	if journalPath == "" {
		return ""
	}
	store, err := storage.NewSQLiteStore(journalPath)
	if err != nil {
		fmt.Printf("⚠️ Failed to open journal: %v\n", err)
		return ""
	}
	defer store.Close()

	sess, err := store.LatestSession(ctx)
	if err != nil || sess == nil {
		return ""
	}
	fmt.Printf("Using symbol %s from session %s (%s)\n", sess.Symbol, sess.ID, sess.State)
	return sess.Symbol
}
