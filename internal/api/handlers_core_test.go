package api

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestHealthReportsServiceAndVersion(t *testing.T) {
	env := newTestApp(t)

	response := doRequest(t, env.app, http.MethodGet, "/healthz", nil, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	payload := decodeJSON(t, response)
	if payload["status"] != "ok" || payload["service"] != "edjs" || payload["version"] != "test" {
		t.Fatalf("unexpected health payload: %#v", payload)
	}
	if payload["timestamp"] == nil {
		t.Fatal("expected timestamp in health payload")
	}
}

func TestMetricsExposeRouteTemplates(t *testing.T) {
	env := newTestApp(t)
	doRequest(t, env.app, http.MethodGet, "/healthz", nil, nil)
	doRequest(t, env.app, http.MethodGet, "/teacher", nil, nil)

	response := doRequest(t, env.app, http.MethodGet, "/metrics", nil, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	text := string(body)
	for _, expected := range []string{
		`edjs_build_info{version="test"} 1`,
		`edjs_http_requests_total{method="GET",route="/healthz",status="200"} 1`,
		`edjs_route_access_decisions_total{decision="redirect_login"} 1`,
	} {
		if !strings.Contains(text, expected) {
			t.Fatalf("expected metrics output to contain %q", expected)
		}
	}
}

func TestNotFoundAnswersByAudience(t *testing.T) {
	env := newTestApp(t)

	api := doRequest(t, env.app, http.MethodGet, "/api/unknown", nil, nil)
	if api.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 for api path, got %d", api.StatusCode)
	}
	if payload := decodeJSON(t, api); payload["error"] != "not_found" {
		t.Fatalf("expected not_found, got %#v", payload)
	}

	page := doRequest(t, env.app, http.MethodGet, "/spectacles-inconnus", nil, nil)
	if page.StatusCode != http.StatusSeeOther || page.Header.Get("Location") != "/unauthorized" {
		t.Fatalf("expected redirect to /unauthorized, got %d %q", page.StatusCode, page.Header.Get("Location"))
	}
}

func TestSetLanguageStoresCookieAndRejectsExternalNext(t *testing.T) {
	env := newTestApp(t)

	response := doRequest(t, env.app, http.MethodGet, "/lang/en?next=//evil.example", nil, nil)
	if response.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", response.StatusCode)
	}
	if location := response.Header.Get("Location"); location != "/" {
		t.Fatalf("expected fallback redirect to /, got %q", location)
	}
	cookie := responseCookie(response.Cookies(), languageCookieName)
	if cookie == nil || cookie.Value != "en" {
		t.Fatalf("expected en language cookie, got %#v", cookie)
	}
}

func TestErrorMessagesFollowLanguage(t *testing.T) {
	env := newTestApp(t)

	french := decodeJSON(t, doRequest(t, env.app, http.MethodGet, "/api/me", nil, nil))
	english := decodeJSON(t, doRequest(t, env.app, http.MethodGet, "/api/me", nil, http.Header{
		"Accept-Language": {"en-US,en;q=0.9"},
	}))
	if french["error"] != "unauthenticated" || english["error"] != "unauthenticated" {
		t.Fatalf("expected unauthenticated code, got %#v / %#v", french, english)
	}
	if french["message"] == english["message"] {
		t.Fatalf("expected localized messages to differ, got %#v", french["message"])
	}
}
