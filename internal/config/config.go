package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	minSecretKeyLength  = 32
	minSetupTokenLength = 16
	defaultPort         = "8080"
	defaultLanguage     = "fr"
)

var (
	DefaultDBPath     = filepath.Join("data", "edjs.db")
	DefaultStorageDir = filepath.Join("data", "uploads")
)

var insecureSecretPlaceholders = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
	"changeme":                                   {},
	"secret":                                     {},
}

// Config is the validated runtime configuration of the platform.
type Config struct {
	SecretKey       string
	Port            string
	DBPath          string
	StorageDir      string
	PublicURL       string
	SetupToken      string
	ResendAPIKey    string
	MailFrom        string
	CookieSecure    bool
	DefaultLanguage string
	Location        *time.Location
}

// LoadDotEnv reads path into the process environment when the file exists.
// Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() (Config, error) {
	secretKey, err := resolveSecretKey()
	if err != nil {
		return Config{}, err
	}
	port, err := resolvePort()
	if err != nil {
		return Config{}, err
	}
	publicURL, err := resolvePublicURL()
	if err != nil {
		return Config{}, err
	}
	setupToken, err := resolveSetupToken()
	if err != nil {
		return Config{}, err
	}
	cookieSecure, err := resolveBool("COOKIE_SECURE", strings.HasPrefix(publicURL, "https://"))
	if err != nil {
		return Config{}, err
	}

	resendAPIKey := strings.TrimSpace(os.Getenv("RESEND_API_KEY"))
	mailFrom := strings.TrimSpace(os.Getenv("MAIL_FROM"))
	if resendAPIKey != "" && mailFrom == "" {
		return Config{}, errors.New("MAIL_FROM is required when RESEND_API_KEY is set")
	}

	return Config{
		SecretKey:       secretKey,
		Port:            port,
		DBPath:          DatabasePath(),
		StorageDir:      getEnv("STORAGE_DIR", DefaultStorageDir),
		PublicURL:       publicURL,
		SetupToken:      setupToken,
		ResendAPIKey:    resendAPIKey,
		MailFrom:        mailFrom,
		CookieSecure:    cookieSecure,
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", defaultLanguage),
		Location:        resolveLocation(getEnv("TZ", "Africa/Casablanca")),
	}, nil
}

// DatabasePath resolves DB_PATH alone, for commands that do not need the
// server secrets.
func DatabasePath() string {
	return getEnv("DB_PATH", DefaultDBPath)
}

func resolveSecretKey() (string, error) {
	secretKey := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secretKey == "" {
		return "", errors.New("SECRET_KEY is required")
	}
	if _, insecure := insecureSecretPlaceholders[strings.ToLower(secretKey)]; insecure {
		return "", errors.New("SECRET_KEY uses an insecure placeholder value")
	}
	if len(secretKey) < minSecretKeyLength {
		return "", fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	}
	return secretKey, nil
}

func resolvePort() (string, error) {
	raw := getEnv("PORT", defaultPort)
	port, err := strconv.Atoi(raw)
	if err != nil {
		return "", fmt.Errorf("PORT must be numeric: %q", raw)
	}
	if port < 1 || port > 65535 {
		return "", fmt.Errorf("PORT out of range: %d", port)
	}
	return strconv.Itoa(port), nil
}

func resolvePublicURL() (string, error) {
	raw := strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+getEnv("PORT", defaultPort)), "/")
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("PUBLIC_URL must be an absolute http(s) URL: %q", raw)
	}
	return raw, nil
}

// resolveSetupToken allows an empty token, which disables the setup function.
func resolveSetupToken() (string, error) {
	token := strings.TrimSpace(os.Getenv("ADMIN_SETUP_TOKEN"))
	if token != "" && len(token) < minSetupTokenLength {
		return "", fmt.Errorf("ADMIN_SETUP_TOKEN must be at least %d characters", minSetupTokenLength)
	}
	return token, nil
}

func resolveBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %q", key, raw)
	}
	return value, nil
}

func resolveLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return location
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
