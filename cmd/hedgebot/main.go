package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/config"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/infrastructure/exchange"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/infrastructure/logger"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/infrastructure/notify"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/infrastructure/storage"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/usecase"
	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/web"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config")
	symbolFlag := flag.String("symbol", "", "futures symbol, e.g. BTCUSDT (prompted when empty)")
	amountFlag := flag.Float64("amount", 0, "USDT per leg (prompted when zero)")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return exitError
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		return exitError
	}

	// 2. Init Logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		return exitError
	}
	defer log.Sync()
	log.Info("Config loaded", zap.Any("config", cfg.Redacted()))

	// 3. Init Exchange
	client, err := exchange.New(cfg.Exchange)
	if err != nil {
		log.Error("Failed to init exchange", zap.Error(err))
		return exitError
	}

	// 4. Init Journal
	var journal domain.JournalRepository
	if cfg.Journal.Path != "" {
		store, err := storage.NewSQLiteStore(cfg.Journal.Path)
		if err != nil {
			log.Error("Failed to init sqlite", zap.Error(err))
			return exitError
		}
		defer store.Close()
		journal = store
	}

	// 5. Init Services
	notifier := notify.FromConfig(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, log)
	executor := usecase.NewTradeExecutor(client, cfg.Strategy.Leverage, log)
	svc := usecase.NewHedgeService(client, executor, journal, notifier, cfg.Strategy, log)
	monitor := usecase.NewHedgeMonitor(client, executor, cfg.Strategy, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	// 6. Status Server
	if cfg.Server.Port > 0 {
		server := web.NewServer(cfg.Server.Port, cfg.Server.CORSOrigins, svc, journal, client, log)
		g.Go(func() error {
			// A dead status server must not take the hedge down with it.
			if err := server.Start(); err != nil {
				log.Error("Status server failed", zap.Error(err))
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return server.Shutdown(shutdownCtx)
		})
	}

	// 7. Open and Monitor
	var p *prompter
	if *symbolFlag == "" || *amountFlag <= 0 {
		p = &prompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
	}

	var trigger *domain.Trigger
	var runErr error
	g.Go(func() error {
		defer cancel()

		sess, err := openHedge(gctx, svc, p, *symbolFlag, *amountFlag)
		if err != nil {
			runErr = err
			return nil
		}
		fmt.Printf("Hedge opened on %s: qty %v, LONG @ %v (TP %v), SHORT @ %v (TP %v)\n",
			sess.Symbol, sess.Quantity, sess.LongEntry, sess.LongTakeProfit, sess.ShortEntry, sess.ShortTakeProfit)

		trigger, runErr = monitor.Run(gctx, sess)
		svc.Finish(gctx, trigger, runErr)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Status server shutdown failed", zap.Error(err))
	}

	code := exitCode(ctx.Err(), runErr)
	switch code {
	case exitOK:
		fmt.Printf("Stop-market order placed for %s position at %v (qty %v)\n",
			trigger.Side, trigger.StopPrice, trigger.Quantity)
	case exitInterrupted:
		log.Info("Interrupted, exiting")
		fmt.Println("Interrupted.")
	default:
		fmt.Printf("An error occurred: %v\n", runErr)
	}
	return code
}

// exitCode maps the signal context's error and the hedge outcome to a process exit code.
func exitCode(signalErr, runErr error) int {
	switch {
	case runErr == nil:
		return exitOK
	case signalErr != nil || errors.Is(runErr, context.Canceled):
		return exitInterrupted
	default:
		return exitError
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	if cfg.File != "" {
		return logger.NewFileLogger(cfg.File, cfg.Level)
	}
	return logger.NewLogger(cfg.Level)
}
