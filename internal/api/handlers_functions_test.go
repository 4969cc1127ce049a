package api

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/edjs-platform/edjs/internal/models"
	"github.com/gofiber/fiber/v2"
)

func TestCreateAdminChecksRunInOrder(t *testing.T) {
	env := newTestApp(t)

	notAllowed := doRequest(t, env.app, http.MethodGet, "/functions/v1/create-admin", nil, nil)
	if notAllowed.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", notAllowed.StatusCode)
	}

	badToken := doRequest(t, env.app, http.MethodPost, "/functions/v1/create-admin", fiber.Map{}, http.Header{
		setupTokenHeader: {"wrong-token"},
	})
	if badToken.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", badToken.StatusCode)
	}
	if message, _ := decodeJSON(t, badToken)["error"].(string); message == "" {
		t.Fatal("expected error message in function response")
	}

	missing := doRequest(t, env.app, http.MethodPost, "/functions/v1/create-admin", fiber.Map{
		"email": "directeur@edjs.ma",
	}, http.Header{setupTokenHeader: {testSetupToken}})
	if missing.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", missing.StatusCode)
	}

	created := doRequest(t, env.app, http.MethodPost, "/functions/v1/create-admin", fiber.Map{
		"email":     "directeur@edjs.ma",
		"password":  testPassword,
		"full_name": "Directeur EDJS",
	}, http.Header{setupTokenHeader: {testSetupToken}})
	if created.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", created.StatusCode)
	}
	payload := decodeJSON(t, created)
	if payload["success"] != true || payload["user_id"] == nil {
		t.Fatalf("unexpected create-admin payload: %#v", payload)
	}

	profile := models.Profile{}
	if err := env.database.Where("email = ?", "directeur@edjs.ma").First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.Role != models.RoleAdminFull || profile.VerificationStatus != models.VerificationApproved || !profile.HasAcceptedConsents() {
		t.Fatalf("unexpected administrator profile: %#v", profile)
	}
	loginAndExtractAuthCookie(t, env.app, "directeur@edjs.ma")
}

func TestCreateAdminAcceptsCamelCaseFullName(t *testing.T) {
	env := newTestApp(t)

	response := doRequest(t, env.app, http.MethodPost, "/functions/v1/create-admin", fiber.Map{
		"email":    "directrice@edjs.ma",
		"password": testPassword,
		"fullName": "Directrice EDJS",
	}, http.Header{setupTokenHeader: {testSetupToken}})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
}

func TestFunctionsAnswerCORSPreflight(t *testing.T) {
	env := newTestApp(t)

	for _, path := range []string{"/functions/v1/create-admin", "/functions/v1/send-admin-invitation"} {
		response := doRequest(t, env.app, http.MethodOptions, path, nil, http.Header{
			"Origin":                        {"https://app.edjs.ma"},
			"Access-Control-Request-Method": {"POST"},
		})
		if response.StatusCode != http.StatusNoContent {
			t.Fatalf("%s: expected status 204, got %d", path, response.StatusCode)
		}
		if response.Header.Get("Access-Control-Allow-Origin") == "" {
			t.Fatalf("%s: expected CORS allow origin header", path)
		}
	}
}

func TestSendAdminInvitationHealthReportsMailer(t *testing.T) {
	env := newTestApp(t)

	response := doRequest(t, env.app, http.MethodGet, "/functions/v1/send-admin-invitation?health=1", nil, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	payload := decodeJSON(t, response)
	if payload["using"] != "recording" || payload["canInvite"] != true {
		t.Fatalf("unexpected diagnostics: %#v", payload)
	}
}

func TestSendAdminInvitationRequiresInvitingRole(t *testing.T) {
	env := newTestApp(t)
	createTestAccount(t, env.database, testAccount{Email: "admin@edjs.ma", Role: models.RoleAdmin})
	createTestAccount(t, env.database, testAccount{Email: "full@edjs.ma", Role: models.RoleAdminFull})
	createTestAccount(t, env.database, testAccount{Email: "existant@edjs.ma", Role: models.RoleB2CUser})
	body := fiber.Map{"email": "invite@edjs.ma", "role": "admin", "invitedByName": "EDJS"}

	anonymous := doRequest(t, env.app, http.MethodPost, "/functions/v1/send-admin-invitation", body, nil)
	if anonymous.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", anonymous.StatusCode)
	}

	plain := loginAndExtractAuthCookie(t, env.app, "admin@edjs.ma")
	forbidden := doRequest(t, env.app, http.MethodPost, "/functions/v1/send-admin-invitation", body, cookieHeader(plain))
	if forbidden.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403 for plain admin, got %d", forbidden.StatusCode)
	}

	full := loginAndExtractAuthCookie(t, env.app, "full@edjs.ma")
	sent := doRequest(t, env.app, http.MethodPost, "/functions/v1/send-admin-invitation", body, cookieHeader(full))
	if sent.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", sent.StatusCode)
	}
	payload := decodeJSON(t, sent)
	if payload["success"] != true || payload["mode"] != "invite" {
		t.Fatalf("unexpected invitation payload: %#v", payload)
	}
	invitation, _ := payload["invitation"].(map[string]any)
	token, _ := invitation["invitation_token"].(string)

	resent := doRequest(t, env.app, http.MethodPost, "/functions/v1/send-admin-invitation", fiber.Map{
		"email":           "invite@edjs.ma",
		"role":            "admin",
		"invitationToken": token,
	}, cookieHeader(full))
	if mode := decodeJSON(t, resent)["mode"]; mode != "resend" {
		t.Fatalf("expected resend mode, got %#v", mode)
	}
	var invitations int64
	if err := env.database.Model(&models.AdminInvitation{}).Count(&invitations).Error; err != nil {
		t.Fatalf("count invitations: %v", err)
	}
	if invitations != 1 {
		t.Fatalf("expected resend to reuse the invitation, got %d records", invitations)
	}

	existing := doRequest(t, env.app, http.MethodPost, "/functions/v1/send-admin-invitation", fiber.Map{
		"email": "existant@edjs.ma",
		"role":  "admin",
	}, cookieHeader(full))
	fallback := decodeJSON(t, existing)
	if fallback["mode"] != "recovery_fallback" {
		t.Fatalf("expected recovery fallback, got %#v", fallback)
	}
	if link, _ := fallback["recoveryLink"].(string); link == "" {
		t.Fatal("expected recovery link for existing account")
	}
}

func TestInvitationRecoveryLinkResetsExistingAccount(t *testing.T) {
	env := newTestApp(t)
	createTestAccount(t, env.database, testAccount{Email: "full@edjs.ma", Role: models.RoleAdminFull})
	createTestAccount(t, env.database, testAccount{Email: "parent@edjs.ma", Role: models.RoleB2CUser})

	full := loginAndExtractAuthCookie(t, env.app, "full@edjs.ma")
	sent := doRequest(t, env.app, http.MethodPost, "/functions/v1/send-admin-invitation", fiber.Map{
		"email": "parent@edjs.ma",
		"role":  "admin",
	}, cookieHeader(full))
	link, _ := decodeJSON(t, sent)["recoveryLink"].(string)
	parsed, err := url.Parse(link)
	if err != nil || link == "" {
		t.Fatalf("expected parseable recovery link, got %q (%v)", link, err)
	}

	page := doRequest(t, env.app, http.MethodGet, parsed.RequestURI(), nil, nil)
	if page.StatusCode != http.StatusOK {
		t.Fatalf("expected recovery page status 200, got %d", page.StatusCode)
	}

	reset := doRequest(t, env.app, http.MethodPost, "/api/auth/reset-password", fiber.Map{
		"token":    parsed.Query().Get("token"),
		"password": "Renewed2026Pass",
	}, nil)
	if reset.StatusCode != http.StatusOK {
		t.Fatalf("expected reset status 200, got %d", reset.StatusCode)
	}

	login := doRequest(t, env.app, http.MethodPost, "/api/auth/login", fiber.Map{
		"email":    "parent@edjs.ma",
		"password": "Renewed2026Pass",
	}, nil)
	if login.StatusCode != http.StatusOK {
		t.Fatalf("expected login with the new password, got %d", login.StatusCode)
	}
}

func TestCreateAdminRefusesExistingAccount(t *testing.T) {
	env := newTestApp(t)
	_, profile := createTestAccount(t, env.database, testAccount{Email: "parent@edjs.ma", Role: models.RoleB2CUser})

	response := doRequest(t, env.app, http.MethodPost, "/functions/v1/create-admin", fiber.Map{
		"email":     "Parent@EDJS.ma",
		"password":  "Takeover2026Pass",
		"full_name": "Intrus",
	}, http.Header{setupTokenHeader: {testSetupToken}})
	if response.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", response.StatusCode)
	}
	if message, _ := decodeJSON(t, response)["error"].(string); message == "" {
		t.Fatal("expected error message in function response")
	}

	var stored models.Profile
	if err := env.database.First(&stored, profile.ID).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if stored.Role != models.RoleB2CUser {
		t.Fatalf("expected role to stay b2c_user, got %q", stored.Role)
	}

	login := doRequest(t, env.app, http.MethodPost, "/api/auth/login", fiber.Map{
		"email":    "parent@edjs.ma",
		"password": "Takeover2026Pass",
	}, nil)
	if login.StatusCode == http.StatusOK {
		t.Fatal("expected the submitted password to be ignored")
	}
}
