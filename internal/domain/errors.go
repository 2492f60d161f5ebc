package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrFilterMissing    = errors.New("instrument filter missing")
	ErrQuantityTooSmall = errors.New("quantity rounds to zero")
	ErrNoOpenPosition   = errors.New("no open position")
	ErrOrderRejected    = errors.New("order rejected")
)

// ExchangeError is an error reported by the exchange itself (as opposed to transport or
// local failures). The CLI treats it as retryable input.
type ExchangeError struct {
	Exchange string
	Code     int64
	Message  string
	// Err optionally links a domain sentinel (e.g. ErrSymbolNotFound).
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s api error %d: %s", e.Exchange, e.Code, e.Message)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// IsExchangeError reports whether err carries an *ExchangeError.
func IsExchangeError(err error) bool {
	var ee *ExchangeError
	return errors.As(err, &ee)
}

// PartialFailureError is returned when a hedge failed after some orders were accepted.
type PartialFailureError struct {
	Step    string
	Placed  []*Order
	Unwound bool
	Err     error
}

func (e *PartialFailureError) Error() string {
	ids := make([]string, 0, len(e.Placed))
	for _, o := range e.Placed {
		ids = append(ids, fmt.Sprintf("%s/%s", o.PositionSide, o.OrderID))
	}
	state := "left open"
	if e.Unwound {
		state = "unwound"
	}
	return fmt.Sprintf("hedge failed at %s after placing [%s] (%s): %v", e.Step, strings.Join(ids, ", "), state, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
