package mail

import (
	"context"
	"errors"
	"strings"
)

var ErrInvalidMessage = errors.New("invalid mail message")

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Diagnostics is what the invitation function reports in health mode.
type Diagnostics struct {
	Using     string `json:"using"`
	HasAPIKey bool   `json:"hasApiKey"`
	HasSender bool   `json:"hasSender"`
	CanSend   bool   `json:"canInvite"`
}

type Mailer interface {
	Send(ctx context.Context, message Message) error
	Diagnostics() Diagnostics
}

// SanitizeHeader strips line breaks so a value can never open a new header.
func SanitizeHeader(value string) string {
	replacer := strings.NewReplacer("\r", "", "\n", "", "\u2028", "", "\u2029", "")
	return strings.TrimSpace(replacer.Replace(value))
}

func normalizeMessage(message Message) (Message, error) {
	message.To = SanitizeHeader(message.To)
	message.Subject = SanitizeHeader(message.Subject)
	if message.To == "" || !strings.Contains(message.To, "@") {
		return Message{}, ErrInvalidMessage
	}
	if message.Subject == "" || (message.HTML == "" && message.Text == "") {
		return Message{}, ErrInvalidMessage
	}
	return message, nil
}
