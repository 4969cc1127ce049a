package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes messages to the service log instead of delivering them.
// It is the default when no provider key is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (mailer *LogMailer) Send(ctx context.Context, message Message) error {
	normalized, err := normalizeMessage(message)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mailer.logger.InfoContext(ctx, "mail not delivered, logging instead",
		"to", normalized.To,
		"subject", normalized.Subject,
		"text", normalized.Text,
	)
	return nil
}

func (mailer *LogMailer) Diagnostics() Diagnostics {
	return Diagnostics{Using: "log", CanSend: true}
}
