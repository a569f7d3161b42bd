// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Email is a single outbound message with both plain-text and HTML
// bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers outbound email. The expiry sweep worker uses it for
// waitlist notifications.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// LogSender is the default Sender: it logs the message instead of
// delivering it. Deployments wire a real transport in its place.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, e Email) error {
	s.Log.Info("outbound email (log sender)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject))
	return nil
}
