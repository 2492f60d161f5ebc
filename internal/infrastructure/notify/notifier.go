// Package notify fans hedge alerts out to chat channels and the log.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier implements domain.Notifier over a list of senders. Every alert is also
// logged, so a run without chat credentials still leaves a trace.
type Notifier struct {
	senders []Sender
	logger  *zap.Logger
}

func NewNotifier(senders []Sender, logger *zap.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		logger:  logger.With(zap.String("component", "notifier")),
	}
}

// FromConfig wires Telegram when both token and chat id are set.
func FromConfig(token, chatID string, logger *zap.Logger) *Notifier {
	var senders []Sender
	if token != "" && chatID != "" {
		senders = append(senders, NewTelegramSender(token, chatID))
	}
	return NewNotifier(senders, logger)
}

// Notify delivers to every sender; one failing sender does not stop the rest.
func (n *Notifier) Notify(ctx context.Context, title, message string) error {
	n.logger.Info("Alert", zap.String("title", title), zap.String("message", message))

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.Error("Sender failed", zap.String("sender", s.Name()), zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
