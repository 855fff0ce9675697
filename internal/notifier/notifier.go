// Package notifier delivers plain-text email. The reset flow only cares
// whether dispatch succeeded; message contents stay opaque to callers.
package notifier

import "context"

type Notifier interface {
	Send(ctx context.Context, to string, subject string, body string) error
}
