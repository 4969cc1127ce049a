package services

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrAuthCredentialsInvalid = errors.New("auth credentials invalid")
	ErrEmailDomainMismatch    = errors.New("email domain mismatch")
)

func NormalizeAuthEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ""
	}
	return email
}

func NormalizeCredentialsInput(emailRaw string, passwordRaw string) (string, string, error) {
	email := NormalizeAuthEmail(emailRaw)
	password := strings.TrimSpace(passwordRaw)
	if email == "" || password == "" {
		return "", "", ErrAuthCredentialsInvalid
	}
	return email, password, nil
}

// NormalizeEmailDomain accepts "ecole.ma", "@ecole.ma" or "https://ecole.ma/".
func NormalizeEmailDomain(raw string) string {
	domain := strings.ToLower(strings.TrimSpace(raw))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "@")
	domain = strings.TrimPrefix(domain, "www.")
	return strings.TrimRight(domain, "/")
}

// ValidateEmailDomain checks an address against an organization's declared
// domain. An empty domain accepts everything.
func ValidateEmailDomain(email string, domain string) error {
	normalizedDomain := NormalizeEmailDomain(domain)
	if normalizedDomain == "" {
		return nil
	}

	normalizedEmail := NormalizeAuthEmail(email)
	at := strings.LastIndex(normalizedEmail, "@")
	if at < 0 || normalizedEmail[at+1:] != normalizedDomain {
		return ErrEmailDomainMismatch
	}
	return nil
}
