package services

import (
	"testing"

	"github.com/edjs-platform/edjs/internal/models"
)

func TestIsAuthorizedNilProfileIsDenied(t *testing.T) {
	if IsAuthorized(nil, AnyAuthenticated()) {
		t.Fatal("expected nil profile to be denied")
	}
}

func TestIsAuthorizedEmptyRequirementAllowsAnyProfile(t *testing.T) {
	profile := &models.Profile{Role: models.Role("ghost")}
	if !IsAuthorized(profile, AnyAuthenticated()) {
		t.Fatal("expected any authenticated profile to pass an empty requirement")
	}
}

func TestIsAuthorizedTeacherPublicOnTeacherRoute(t *testing.T) {
	profile := &models.Profile{Role: models.RoleTeacherPublic}
	requirement := AllowRoles(models.RoleTeacherPrivate, models.RoleTeacherPublic)
	if !IsAuthorized(profile, requirement) {
		t.Fatal("expected teacher_public to reach /teacher")
	}
}

func TestIsAuthorizedUnknownRoleNeverMatchesRoleRequirement(t *testing.T) {
	profile := &models.Profile{Role: models.Role("super-admin")}
	if IsAuthorized(profile, RequireAdmin()) {
		t.Fatal("expected unrecognized role to be denied")
	}
}

func TestIsAuthorizedSetMembershipIsUnionOfSingles(t *testing.T) {
	roles := append(models.KnownRoles(), models.Role("unknown"), models.Role(""))
	for _, profileRole := range roles {
		profile := &models.Profile{Role: profileRole}
		for _, first := range roles {
			for _, second := range roles {
				combined := IsAuthorized(profile, AllowRoles(first, second))
				separate := IsAuthorized(profile, RequireRole(first)) || IsAuthorized(profile, RequireRole(second))
				if combined != separate {
					t.Fatalf("membership mismatch for role=%q set={%q,%q}: combined=%v separate=%v", profileRole, first, second, combined, separate)
				}
			}
		}
	}
}

func TestEvaluateAccessDistinguishesOutcomes(t *testing.T) {
	partner := &models.Profile{Role: models.RolePartner}

	testCases := []struct {
		name     string
		lookup   ProfileLookup
		expected AccessDecision
	}{
		{name: "loading", lookup: ProfileLookup{Loading: true}, expected: AccessLoading},
		{name: "anonymous", lookup: ProfileLookup{}, expected: AccessRedirectLogin},
		{name: "denied", lookup: ProfileLookup{Authenticated: true, Profile: partner}, expected: AccessRedirectUnauthorized},
		{name: "missing profile", lookup: ProfileLookup{Authenticated: true}, expected: AccessRedirectUnauthorized},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			decision := EvaluateAccess(testCase.lookup, RequireAdmin())
			if decision != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, decision)
			}
		})
	}
}

func TestEvaluateAccessPartnerOnAdminShowsRedirectsToUnauthorized(t *testing.T) {
	rule, ok := LookupRoute("/admin/spectacles")
	if !ok || rule.Public {
		t.Fatalf("expected protected rule for /admin/spectacles, got %#v ok=%v", rule, ok)
	}

	lookup := ProfileLookup{Authenticated: true, Profile: &models.Profile{Role: models.RolePartner}}
	decision := EvaluateAccess(lookup, rule.Requirement)
	if decision != AccessRedirectUnauthorized {
		t.Fatalf("expected redirect_unauthorized, got %q", decision)
	}
	if decision.RedirectPath() != "/unauthorized" {
		t.Fatalf("expected /unauthorized, got %q", decision.RedirectPath())
	}
	if AccessRedirectLogin.RedirectPath() != "/auth" {
		t.Fatalf("expected /auth for login redirect, got %q", AccessRedirectLogin.RedirectPath())
	}
}

func TestLookupRouteNormalizesPath(t *testing.T) {
	rule, ok := LookupRoute("teacher/new-booking/?step=2")
	if !ok {
		t.Fatal("expected route to resolve")
	}
	if rule.Path != "/teacher/new-booking" {
		t.Fatalf("unexpected normalized path %q", rule.Path)
	}
	if IsAuthorized(&models.Profile{Role: models.RoleTeacherPublic}, rule.Requirement) {
		t.Fatal("expected teacher_public to be denied the private booking form")
	}

	if _, ok := LookupRoute("/nowhere"); ok {
		t.Fatal("expected unknown path to be unresolved")
	}
	public, ok := LookupRoute("/admin/setup")
	if !ok || !public.Public {
		t.Fatalf("expected /admin/setup to be public, got %#v", public)
	}
}
