package services

import (
	"context"
	"errors"
	"testing"

	"github.com/edjs-platform/edjs/internal/models"
)

type stubRedirectProfiles struct {
	profile    models.Profile
	consentErr error
	accessErr  error
	calls      []string
	onConsent  func()
}

func (stub *stubRedirectProfiles) FindConsentByUserID(_ context.Context, _ uint) (models.Profile, error) {
	stub.calls = append(stub.calls, "consent")
	if stub.onConsent != nil {
		stub.onConsent()
	}
	if stub.consentErr != nil {
		return models.Profile{}, stub.consentErr
	}
	return models.Profile{
		PrivacyAccepted: stub.profile.PrivacyAccepted,
		TermsAccepted:   stub.profile.TermsAccepted,
	}, nil
}

func (stub *stubRedirectProfiles) FindAccessByUserID(_ context.Context, _ uint) (models.Profile, error) {
	stub.calls = append(stub.calls, "access")
	if stub.accessErr != nil {
		return models.Profile{}, stub.accessErr
	}
	return models.Profile{
		Role:               stub.profile.Role,
		VerificationStatus: stub.profile.VerificationStatus,
	}, nil
}

func consentedProfile(role models.Role, status models.VerificationStatus) models.Profile {
	return models.Profile{
		Role:               role,
		VerificationStatus: status,
		PrivacyAccepted:    true,
		TermsAccepted:      true,
	}
}

func TestLoginRedirectApprovedB2CUserDispatchesToB2C(t *testing.T) {
	stub := &stubRedirectProfiles{profile: consentedProfile(models.RoleB2CUser, models.VerificationApproved)}
	service := NewLoginRedirectService(stub)

	outcome, err := service.Resolve(context.Background(), 7)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if outcome.State != RedirectDispatch || outcome.Dashboard != DashboardB2C || outcome.Target != "/b2c" {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}
	if len(stub.calls) != 2 || stub.calls[0] != "consent" || stub.calls[1] != "access" {
		t.Fatalf("expected consent then access reads, got %v", stub.calls)
	}
}

func TestLoginRedirectPendingTeacherStaysWithNotice(t *testing.T) {
	stub := &stubRedirectProfiles{profile: consentedProfile(models.RoleTeacherPublic, models.VerificationPending)}
	service := NewLoginRedirectService(stub)

	outcome, err := service.Resolve(context.Background(), 7)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if outcome.State != RedirectPendingNotice {
		t.Fatalf("expected pending notice, got %#v", outcome)
	}
	if outcome.Navigates() || outcome.Target != "" {
		t.Fatalf("expected no navigation target, got %#v", outcome)
	}
}

func TestLoginRedirectPendingNeverYieldsDashboard(t *testing.T) {
	roles := append(models.KnownRoles(), models.Role("unknown"))
	for _, role := range roles {
		stub := &stubRedirectProfiles{profile: consentedProfile(role, models.VerificationPending)}
		outcome, err := NewLoginRedirectService(stub).Resolve(context.Background(), 1)
		if err != nil {
			t.Fatalf("Resolve() unexpected error for %q: %v", role, err)
		}
		if outcome.Navigates() {
			t.Fatalf("pending %q must not navigate, got %#v", role, outcome)
		}
	}
}

func TestLoginRedirectMissingConsentStopsBeforeVerificationRead(t *testing.T) {
	flags := []struct{ privacy, terms bool }{{false, false}, {true, false}, {false, true}}
	roles := append(models.KnownRoles(), models.Role("unknown"))

	for _, role := range roles {
		for _, flag := range flags {
			stub := &stubRedirectProfiles{profile: models.Profile{
				Role:               role,
				VerificationStatus: models.VerificationApproved,
				PrivacyAccepted:    flag.privacy,
				TermsAccepted:      flag.terms,
			}}
			outcome, err := NewLoginRedirectService(stub).Resolve(context.Background(), 1)
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if outcome.State != RedirectNeedsConsent {
				t.Fatalf("expected needs_consent for %q %+v, got %#v", role, flag, outcome)
			}
			if len(stub.calls) != 1 || stub.calls[0] != "consent" {
				t.Fatalf("expected only the consent read, got %v", stub.calls)
			}
		}
	}
}

func TestLoginRedirectUnknownRoleDispatchesToUnauthorized(t *testing.T) {
	stub := &stubRedirectProfiles{profile: consentedProfile(models.Role("owner"), models.VerificationApproved)}
	outcome, err := NewLoginRedirectService(stub).Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if outcome.Dashboard != DashboardUnauthorized || outcome.Target != "/unauthorized" {
		t.Fatalf("expected unauthorized dispatch, got %#v", outcome)
	}
}

func TestLoginRedirectFetchFailureIsUnavailable(t *testing.T) {
	stub := &stubRedirectProfiles{
		profile:   consentedProfile(models.RoleAdmin, models.VerificationApproved),
		accessErr: errors.New("database is locked"),
	}
	outcome, err := NewLoginRedirectService(stub).Resolve(context.Background(), 1)
	if !errors.Is(err, ErrRedirectUnavailable) {
		t.Fatalf("expected ErrRedirectUnavailable, got %v", err)
	}
	if outcome.Navigates() {
		t.Fatalf("expected no navigation on failure, got %#v", outcome)
	}

	stub = &stubRedirectProfiles{consentErr: errors.New("boom")}
	if _, err := NewLoginRedirectService(stub).Resolve(context.Background(), 1); !errors.Is(err, ErrRedirectUnavailable) {
		t.Fatalf("expected ErrRedirectUnavailable for consent failure, got %v", err)
	}
}

func TestLoginRedirectCancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubRedirectProfiles{profile: consentedProfile(models.RoleAdmin, models.VerificationApproved)}
	_, err := NewLoginRedirectService(stub).Resolve(ctx, 1)
	if !errors.Is(err, ErrRedirectAborted) {
		t.Fatalf("expected ErrRedirectAborted, got %v", err)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("expected no reads after cancellation, got %v", stub.calls)
	}
}

func TestLoginRedirectCancelledBetweenReadsAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stub := &stubRedirectProfiles{
		profile:   consentedProfile(models.RoleAdmin, models.VerificationApproved),
		onConsent: cancel,
	}
	outcome, err := NewLoginRedirectService(stub).Resolve(ctx, 1)
	if !errors.Is(err, ErrRedirectAborted) {
		t.Fatalf("expected ErrRedirectAborted, got %v", err)
	}
	if outcome.Navigates() {
		t.Fatalf("expected no navigation, got %#v", outcome)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("expected access read to be skipped, got %v", stub.calls)
	}
}
