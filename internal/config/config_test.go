package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func TestResolveSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when SECRET_KEY is empty")
	}

	t.Setenv("SECRET_KEY", "change_me_in_production")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when SECRET_KEY uses insecure placeholder")
	}

	t.Setenv("SECRET_KEY", "too-short-secret")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when SECRET_KEY is too short")
	}

	t.Setenv("SECRET_KEY", validSecret)
	secret, err := resolveSecretKey()
	if err != nil {
		t.Fatalf("expected valid secret, got error: %v", err)
	}
	if secret != validSecret {
		t.Fatalf("expected %q, got %q", validSecret, secret)
	}
}

func TestResolvePort(t *testing.T) {
	t.Setenv("PORT", "")
	port, err := resolvePort()
	if err != nil {
		t.Fatalf("expected default port, got error: %v", err)
	}
	if port != "8080" {
		t.Fatalf("expected default port 8080, got %q", port)
	}

	for _, invalid := range []string{"0", "70000", "not-a-number"} {
		t.Setenv("PORT", invalid)
		if _, err := resolvePort(); err == nil {
			t.Fatalf("expected invalid port %q to fail", invalid)
		}
	}
}

func TestResolveSetupToken(t *testing.T) {
	t.Setenv("ADMIN_SETUP_TOKEN", "")
	token, err := resolveSetupToken()
	if err != nil || token != "" {
		t.Fatalf("expected disabled setup token, got %q, %v", token, err)
	}

	t.Setenv("ADMIN_SETUP_TOKEN", "short")
	if _, err := resolveSetupToken(); err == nil {
		t.Fatal("expected short setup token to fail")
	}
}

func TestLoadDerivesCookieSecureFromPublicURL(t *testing.T) {
	t.Setenv("SECRET_KEY", validSecret)
	t.Setenv("PORT", "")
	t.Setenv("ADMIN_SETUP_TOKEN", "")
	t.Setenv("RESEND_API_KEY", "")
	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("PUBLIC_URL", "https://billetterie.edjs.ma/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.PublicURL != "https://billetterie.edjs.ma" {
		t.Fatalf("expected trailing slash to be trimmed, got %q", cfg.PublicURL)
	}
	if !cfg.CookieSecure {
		t.Fatal("expected https public URL to enable secure cookies")
	}
	if cfg.DefaultLanguage != "fr" {
		t.Fatalf("expected default language fr, got %q", cfg.DefaultLanguage)
	}

	t.Setenv("COOKIE_SECURE", "false")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.CookieSecure {
		t.Fatal("expected explicit COOKIE_SECURE=false to win")
	}

	t.Setenv("PUBLIC_URL", "ftp://edjs.ma")
	if _, err := Load(); err == nil {
		t.Fatal("expected non-http public URL to fail")
	}
}

func TestLoadRequiresSenderWithResendKey(t *testing.T) {
	t.Setenv("SECRET_KEY", validSecret)
	t.Setenv("PUBLIC_URL", "")
	t.Setenv("RESEND_API_KEY", "re_test")
	t.Setenv("MAIL_FROM", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected missing MAIL_FROM to fail")
	}

	t.Setenv("MAIL_FROM", "EDJS <noreply@edjs.ma>")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.ResendAPIKey != "re_test" || cfg.MailFrom != "EDJS <noreply@edjs.ma>" {
		t.Fatalf("unexpected mail config %#v", cfg)
	}
}

func TestLoadDotEnvIgnoresMissingFileAndKeepsExistingValues(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("EDJS_TEST_FROM_FILE=file\nEDJS_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("EDJS_TEST_PRESET", "process")
	t.Setenv("EDJS_TEST_FROM_FILE", "")
	os.Unsetenv("EDJS_TEST_FROM_FILE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() unexpected error: %v", err)
	}
	if got := os.Getenv("EDJS_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("EDJS_TEST_PRESET"); got != "process" {
		t.Fatalf("expected process value to win, got %q", got)
	}
}
