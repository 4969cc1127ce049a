package mail

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSanitizeHeaderStripsLineBreaks(t *testing.T) {
	got := SanitizeHeader(" Invitation\r\nBcc: attacker@example.com ")
	if strings.ContainsAny(got, "\r\n") {
		t.Fatalf("expected no line breaks, got %q", got)
	}
	if got != "InvitationBcc: attacker@example.com" {
		t.Fatalf("unexpected sanitized header %q", got)
	}
}

func TestInvitationMessageEscapesHTML(t *testing.T) {
	message, err := InvitationMessage("new@edjs.ma", InvitationData{
		InvitedByName: `<script>alert(1)</script>`,
		Role:          "admin",
		Link:          "https://edjs.ma/admin/setup?invitation=abc",
		ExpiresAt:     "2026-03-08",
	})
	if err != nil {
		t.Fatalf("InvitationMessage() unexpected error: %v", err)
	}
	if strings.Contains(message.HTML, "<script>") {
		t.Fatalf("expected inviter name to be escaped, got %q", message.HTML)
	}
	if !strings.Contains(message.HTML, "invitation=abc") {
		t.Fatalf("expected link in body, got %q", message.HTML)
	}
}

func TestLogMailerRejectsInvalidMessage(t *testing.T) {
	mailer := NewLogMailer(slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := mailer.Send(context.Background(), Message{To: "not-an-address", Subject: "x", Text: "y"})
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if err := mailer.Send(context.Background(), Message{To: "a@b.ma", Subject: "x", Text: "y"}); err != nil {
		t.Fatalf("expected log mailer to accept message, got %v", err)
	}
	if !mailer.Diagnostics().CanSend {
		t.Fatal("expected log mailer to report it can send")
	}
}

func TestResendMailerPostsPayload(t *testing.T) {
	var received resendPayload
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer server.Close()

	mailer := NewResendMailer(ResendConfig{
		APIKey:   "re_test",
		From:     "EDJS <no-reply@edjs.ma>\r\n",
		Endpoint: server.URL,
		Timeout:  2 * time.Second,
	})

	err := mailer.Send(context.Background(), Message{To: "prof@ecole.ma", Subject: "Bienvenue\n", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if authorization != "Bearer re_test" {
		t.Fatalf("unexpected authorization header %q", authorization)
	}
	if received.From != "EDJS <no-reply@edjs.ma>" || received.Subject != "Bienvenue" {
		t.Fatalf("expected sanitized headers, got %#v", received)
	}
	if len(received.To) != 1 || received.To[0] != "prof@ecole.ma" {
		t.Fatalf("unexpected recipients %#v", received.To)
	}
}

func TestResendMailerReportsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"domain not verified"}`))
	}))
	defer server.Close()

	mailer := NewResendMailer(ResendConfig{APIKey: "re_test", From: "no-reply@edjs.ma", Endpoint: server.URL})
	err := mailer.Send(context.Background(), Message{To: "prof@ecole.ma", Subject: "x", Text: "y"})
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "domain not verified") {
		t.Fatalf("expected provider message in error, got %v", err)
	}
}

func TestResendMailerDiagnosticsWithoutKey(t *testing.T) {
	diagnostics := NewResendMailer(ResendConfig{From: "no-reply@edjs.ma"}).Diagnostics()
	if diagnostics.CanSend || diagnostics.HasAPIKey || !diagnostics.HasSender {
		t.Fatalf("unexpected diagnostics %#v", diagnostics)
	}
}
