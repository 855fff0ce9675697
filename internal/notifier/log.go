package notifier

import (
	"context"
	"log/slog"
)

// LogNotifier stands in when SMTP is not configured. It logs the dispatch so
// the reset URL is recoverable from dev logs, and always reports success.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(_ context.Context, to string, subject string, body string) error {
	slog.Info("email dispatch (smtp unconfigured)", "to", to, "subject", subject, "body", body)
	return nil
}
