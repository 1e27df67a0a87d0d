// Package console prints login codes to the application log. Development only.
package console

import (
	"context"
	"log/slog"
)

type Notifier struct {
	log *slog.Logger
}

func NewNotifier(log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{log: log}
}

func (n *Notifier) SendCode(ctx context.Context, email, code string) error {
	n.log.InfoContext(ctx, "login code issued", "email", email, "code", code)
	return nil
}
