package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name      string
		signalErr error
		runErr    error
		want      int
	}{
		{"stop placed", nil, nil, exitOK},
		{"stop placed after signal", context.Canceled, nil, exitOK},
		{"signal during monitor", context.Canceled, context.Canceled, exitInterrupted},
		{"signal surfaced as other error", context.Canceled, errors.New("read tcp: use of closed connection"), exitInterrupted},
		{"wrapped cancellation", nil, fmt.Errorf("poll positions: %w", context.Canceled), exitInterrupted},
		{"no open position", nil, domain.ErrNoOpenPosition, exitError},
		{"partial failure", nil, &domain.PartialFailureError{Step: "short entry", Err: domain.ErrOrderRejected}, exitError},
		{"deadline is not an interrupt", nil, context.DeadlineExceeded, exitError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, exitCode(c.signalErr, c.runErr))
		})
	}
}
