package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edjs-platform/edjs/internal/db"
	"github.com/edjs-platform/edjs/internal/i18n"
	"github.com/edjs-platform/edjs/internal/mail"
	"github.com/edjs-platform/edjs/internal/models"
	"github.com/edjs-platform/edjs/internal/storage"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testSecretKey  = "test-secret-key-with-at-least-32-chars"
	testSetupToken = "setup-token-for-tests"
	testPassword   = "Spectacle2024"
)

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (mailer *recordingMailer) Send(_ context.Context, message mail.Message) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	mailer.messages = append(mailer.messages, message)
	return nil
}

func (mailer *recordingMailer) Diagnostics() mail.Diagnostics {
	return mail.Diagnostics{Using: "recording", HasAPIKey: true, HasSender: true, CanSend: true}
}

func (mailer *recordingMailer) sent() []mail.Message {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	return append([]mail.Message(nil), mailer.messages...)
}

type testApp struct {
	app      *fiber.App
	handler  *Handler
	database *gorm.DB
	mailer   *recordingMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "edjs-api-test.db")
	database, err := db.OpenSQLite(databasePath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(database)
	})

	blobs, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("init blob store: %v", err)
	}
	i18nManager, err := i18n.NewManager(i18n.LangFR, i18n.Locales())
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	mailer := &recordingMailer{}
	handler, err := NewHandler(database, Options{
		SecretKey:  testSecretKey,
		PublicURL:  "http://edjs.test",
		SetupToken: testSetupToken,
		Version:    "test",
		Mailer:     mailer,
		Blobs:      blobs,
		I18n:       i18nManager,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	app.Use(handler.LanguageMiddleware)
	app.Use(handler.MetricsMiddleware)
	RegisterRoutes(app, handler)
	return &testApp{app: app, handler: handler, database: database, mailer: mailer}
}

type testAccount struct {
	Email           string
	Role            models.Role
	Status          models.VerificationStatus
	Unconfirmed     bool
	MissingConsents bool
	NoProfile       bool
}

func createTestAccount(t *testing.T, database *gorm.DB, account testAccount) (models.User, *models.Profile) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Email:          account.Email,
		PasswordHash:   string(hash),
		EmailConfirmed: !account.Unconfirmed,
		CreatedAt:      time.Now().UTC(),
	}
	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", account.Email, err)
	}
	if account.NoProfile {
		return user, nil
	}

	status := account.Status
	if status == "" {
		status = models.VerificationApproved
	}
	profile := models.Profile{
		UserID:             user.ID,
		Email:              account.Email,
		Role:               account.Role,
		VerificationStatus: status,
		PrivacyAccepted:    !account.MissingConsents,
		TermsAccepted:      !account.MissingConsents,
		FullName:           "Compte de test",
	}
	if err := database.Create(&profile).Error; err != nil {
		t.Fatalf("create profile %s: %v", account.Email, err)
	}
	return user, &profile
}

func doRequest(t *testing.T, app *fiber.App, method string, path string, body any, header http.Header) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		reader = strings.NewReader(string(encoded))
	}
	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	for name, values := range header {
		for _, value := range values {
			request.Header.Add(name, value)
		}
	}

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() {
		_ = response.Body.Close()
	})
	return response
}

func decodeJSON(t *testing.T, response *http.Response) map[string]any {
	t.Helper()

	payload := map[string]any{}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return payload
}

func readBody(t *testing.T, response *http.Response) string {
	t.Helper()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return string(body)
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

// loginAndExtractAuthCookie signs in and returns a Cookie header value.
func loginAndExtractAuthCookie(t *testing.T, app *fiber.App, email string) string {
	t.Helper()

	response := doRequest(t, app, http.MethodPost, "/api/auth/login", fiber.Map{
		"email":    email,
		"password": testPassword,
	}, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected login status 200, got %d", response.StatusCode)
	}
	cookie := responseCookie(response.Cookies(), authCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("auth cookie is missing in login response")
	}
	return cookie.Name + "=" + cookie.Value
}

func cookieHeader(cookie string) http.Header {
	return http.Header{"Cookie": {cookie}}
}
