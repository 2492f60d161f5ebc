package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
)

const (
	symbolPrompt = "Enter the token symbol (e.g., BTCUSDT): "
	amountPrompt = "Enter the amount in USDT you want to trade: "
)

// opener is the part of usecase.HedgeService the prompt loop drives.
type opener interface {
	Open(ctx context.Context, symbol string, amountUSDT float64) (*domain.HedgeSession, error)
}

// prompter asks for symbol and amount on in and echoes prompts to out.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

type lineResult struct {
	line string
	err  error
}

// readLine returns early on ctx cancellation; the pending read is abandoned.
func (p *prompter) readLine(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)

	ch := make(chan lineResult, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- lineResult{line, err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil && (res.err != io.EOF || res.line == "") {
			return "", res.err
		}
		return strings.TrimSpace(res.line), nil
	}
}

func (p *prompter) ask(ctx context.Context) (string, float64, error) {
	symbol, err := p.readLine(ctx, symbolPrompt)
	if err != nil {
		return "", 0, err
	}
	raw, err := p.readLine(ctx, amountPrompt)
	if err != nil {
		return "", 0, err
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return strings.ToUpper(symbol), 0, fmt.Errorf("amount %q: %w", raw, domain.ErrInvalidInput)
	}
	return strings.ToUpper(symbol), amount, nil
}

// openHedge opens the hedge from flags, or keeps prompting until one opens when p is set.
func openHedge(ctx context.Context, svc opener, p *prompter, symbol string, amount float64) (*domain.HedgeSession, error) {
	for {
		var err error
		if p != nil {
			symbol, amount, err = p.ask(ctx)
			if err != nil && !errors.Is(err, domain.ErrInvalidInput) {
				return nil, err
			}
		}

		var sess *domain.HedgeSession
		if err == nil {
			sess, err = svc.Open(ctx, symbol, amount)
			if err == nil {
				return sess, nil
			}
		}

		if p == nil || ctx.Err() != nil || !retryable(err) {
			return nil, err
		}
		fmt.Fprintf(p.out, "Error: %v\n", err)
		fmt.Fprintln(p.out, "Please enter a valid token symbol.")
	}
}

// retryable reports errors the user can fix by typing something else. Anything that
// left orders on the exchange is never retried.
func retryable(err error) bool {
	var pf *domain.PartialFailureError
	if errors.As(err, &pf) {
		return false
	}
	return domain.IsExchangeError(err) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrSymbolNotFound) ||
		errors.Is(err, domain.ErrQuantityTooSmall)
}
