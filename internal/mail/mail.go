// Package mail is the boundary to the SMTP transport. Delivery failures are
// never fatal to the operation that triggered them.
package mail

import (
	"context"
	"time"

	"go.uber.org/zap"

	"campusboard.org/internal/obs"
)

// Sender submits a single message. Implementations should be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Notifier fans a message out to a recipient list off the request path.
// Per-recipient failures are logged and counted, nothing more.
type Notifier struct {
	sender  Sender
	logger  *zap.Logger
	timeout time.Duration
}

// NewNotifier constructs a Notifier. timeout bounds the whole fan-out; zero
// falls back to one minute.
func NewNotifier(sender Sender, logger *zap.Logger, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{sender: sender, logger: logger, timeout: timeout}
}

// Notify sends subject/body to every recipient sequentially. It is meant to
// run on its own goroutine: it takes no caller context on purpose, so a
// finished HTTP request cannot cancel deliveries in flight.
func (n *Notifier) Notify(recipients []string, subject, body string) {
	if n == nil || n.sender == nil || len(recipients) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	for _, to := range recipients {
		if err := n.sender.Send(ctx, to, subject, body); err != nil {
			obs.ObserveMailSend("error")
			n.logger.Warn("notification mail failed",
				zap.String("to", to),
				zap.Error(err),
			)
			continue
		}
		obs.ObserveMailSend("ok")
	}
}
