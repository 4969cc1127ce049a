package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const DefaultResendEndpoint = "https://api.resend.com/emails"

var ErrDeliveryFailed = errors.New("mail delivery failed")

type ResendConfig struct {
	APIKey   string
	From     string
	Endpoint string
	Timeout  time.Duration
}

// ResendMailer posts messages to a Resend-compatible HTTP API.
type ResendMailer struct {
	apiKey   string
	from     string
	endpoint string
	timeout  time.Duration
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type resendError struct {
	Message string `json:"message"`
}

func NewResendMailer(config ResendConfig) *ResendMailer {
	endpoint := strings.TrimSpace(config.Endpoint)
	if endpoint == "" {
		endpoint = DefaultResendEndpoint
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ResendMailer{
		apiKey:   strings.TrimSpace(config.APIKey),
		from:     SanitizeHeader(config.From),
		endpoint: endpoint,
		timeout:  timeout,
	}
}

func (mailer *ResendMailer) Send(ctx context.Context, message Message) error {
	normalized, err := normalizeMessage(message)
	if err != nil {
		return err
	}
	if mailer.apiKey == "" || mailer.from == "" {
		return fmt.Errorf("%w: mailer is not configured", ErrDeliveryFailed)
	}

	timeout := mailer.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ctx.Err()
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(mailer.endpoint)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+mailer.apiKey)
	agent.Timeout(timeout)
	agent.JSON(resendPayload{
		From:    mailer.from,
		To:      []string{normalized.To},
		Subject: normalized.Subject,
		HTML:    normalized.HTML,
		Text:    normalized.Text,
	})

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, errors.Join(errs...))
	}
	if status < 200 || status >= 300 {
		var providerError resendError
		if json.Unmarshal(body, &providerError) == nil && providerError.Message != "" {
			return fmt.Errorf("%w: status %d: %s", ErrDeliveryFailed, status, providerError.Message)
		}
		return fmt.Errorf("%w: status %d", ErrDeliveryFailed, status)
	}
	return nil
}

func (mailer *ResendMailer) Diagnostics() Diagnostics {
	hasKey := mailer.apiKey != ""
	hasSender := mailer.from != ""
	return Diagnostics{
		Using:     "resend",
		HasAPIKey: hasKey,
		HasSender: hasSender,
		CanSend:   hasKey && hasSender,
	}
}
