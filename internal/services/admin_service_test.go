package services

import (
	"errors"
	"testing"

	"github.com/edjs-platform/edjs/internal/models"
	"gorm.io/gorm"
)

type stubAdminProfiles struct {
	profiles map[uint]models.Profile
}

func (stub *stubAdminProfiles) List(status models.VerificationStatus) ([]models.Profile, error) {
	profiles := make([]models.Profile, 0)
	for _, profile := range stub.profiles {
		if status == "" || profile.VerificationStatus == status {
			profiles = append(profiles, profile)
		}
	}
	return profiles, nil
}

func (stub *stubAdminProfiles) FindByID(profileID uint) (models.Profile, error) {
	profile, ok := stub.profiles[profileID]
	if !ok {
		return models.Profile{}, gorm.ErrRecordNotFound
	}
	return profile, nil
}

func (stub *stubAdminProfiles) UpdateRole(profileID uint, role models.Role) error {
	profile := stub.profiles[profileID]
	profile.Role = role
	stub.profiles[profileID] = profile
	return nil
}

func (stub *stubAdminProfiles) UpdateVerificationStatus(profileID uint, status models.VerificationStatus) error {
	profile := stub.profiles[profileID]
	profile.VerificationStatus = status
	stub.profiles[profileID] = profile
	return nil
}

type stubAdminOrganizations struct {
	organizations map[uint]models.Organization
}

func (stub *stubAdminOrganizations) List(models.VerificationStatus) ([]models.Organization, error) {
	organizations := make([]models.Organization, 0, len(stub.organizations))
	for _, organization := range stub.organizations {
		organizations = append(organizations, organization)
	}
	return organizations, nil
}

func (stub *stubAdminOrganizations) FindByID(organizationID uint) (models.Organization, error) {
	organization, ok := stub.organizations[organizationID]
	if !ok {
		return models.Organization{}, gorm.ErrRecordNotFound
	}
	return organization, nil
}

func (stub *stubAdminOrganizations) UpdateVerificationStatus(organizationID uint, status models.VerificationStatus) error {
	organization := stub.organizations[organizationID]
	organization.VerificationStatus = status
	stub.organizations[organizationID] = organization
	return nil
}

type stubAuditLogs struct {
	entries []models.AuditLog
}

func (stub *stubAuditLogs) Create(entry *models.AuditLog) error {
	entry.ID = uint(len(stub.entries) + 1)
	stub.entries = append(stub.entries, *entry)
	return nil
}

func (stub *stubAuditLogs) ListRecent(int) ([]models.AuditLog, error) {
	return stub.entries, nil
}

type adminFixture struct {
	service       *AdminService
	profiles      *stubAdminProfiles
	organizations *stubAdminOrganizations
	audit         *stubAuditLogs
}

func newAdminFixture() adminFixture {
	schoolID := uint(5)
	profiles := &stubAdminProfiles{profiles: map[uint]models.Profile{
		1: {ID: 1, UserID: 10, Role: models.RoleSuperAdmin, VerificationStatus: models.VerificationApproved},
		2: {ID: 2, UserID: 20, Role: models.RoleTeacherPublic, VerificationStatus: models.VerificationPending, OrganizationID: &schoolID},
		3: {ID: 3, UserID: 30, Role: models.RoleAdmin, VerificationStatus: models.VerificationApproved},
	}}
	organizations := &stubAdminOrganizations{organizations: map[uint]models.Organization{
		5: {ID: 5, Name: "Lycée", Type: models.OrganizationPublicSchool, VerificationStatus: models.VerificationPending},
	}}
	audit := &stubAuditLogs{}
	service := NewAdminService(profiles, organizations, NewAuditService(audit, nil))
	return adminFixture{service: service, profiles: profiles, organizations: organizations, audit: audit}
}

var (
	superAdminActor = Actor{UserID: 10, Role: models.RoleSuperAdmin, IPAddress: "203.0.113.5", UserAgent: "test"}
	plainAdminActor = Actor{UserID: 30, Role: models.RoleAdmin}
)

func TestAdminServiceRejectsNonAdministrators(t *testing.T) {
	fixture := newAdminFixture()
	partner := Actor{UserID: 99, Role: models.RolePartner}

	if _, err := fixture.service.ListProfiles(partner, ""); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
	if _, err := fixture.service.ApproveVerification(partner, 2); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
	if len(fixture.audit.entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(fixture.audit.entries))
	}
}

func TestAdminServiceApproveIsIdempotentAndAudited(t *testing.T) {
	fixture := newAdminFixture()

	profile, err := fixture.service.ApproveVerification(plainAdminActor, 2)
	if err != nil {
		t.Fatalf("ApproveVerification() unexpected error: %v", err)
	}
	if profile.VerificationStatus != models.VerificationApproved {
		t.Fatalf("expected approved, got %q", profile.VerificationStatus)
	}
	if len(fixture.audit.entries) != 1 || fixture.audit.entries[0].Action != "profile.verification_approved" {
		t.Fatalf("expected one approval audit entry, got %#v", fixture.audit.entries)
	}

	if _, err := fixture.service.ApproveVerification(plainAdminActor, 2); err != nil {
		t.Fatalf("second ApproveVerification() unexpected error: %v", err)
	}
	if len(fixture.audit.entries) != 1 {
		t.Fatalf("expected no audit entry for no-op approval, got %d", len(fixture.audit.entries))
	}

	profile, err = fixture.service.RevokeVerification(plainAdminActor, 2)
	if err != nil {
		t.Fatalf("RevokeVerification() unexpected error: %v", err)
	}
	if profile.VerificationStatus != models.VerificationPending {
		t.Fatalf("expected explicit revocation to return to pending, got %q", profile.VerificationStatus)
	}
}

func TestAdminServiceChangeRole(t *testing.T) {
	fixture := newAdminFixture()

	if _, err := fixture.service.ChangeRole(superAdminActor, 2, "overlord"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := fixture.service.ChangeRole(superAdminActor, 1, "admin"); !errors.Is(err, ErrAdminSelfRoleChange) {
		t.Fatalf("expected ErrAdminSelfRoleChange, got %v", err)
	}
	if _, err := fixture.service.ChangeRole(plainAdminActor, 2, "admin_full"); !errors.Is(err, ErrAdminGrantForbidden) {
		t.Fatalf("expected plain admin to be unable to grant admin roles, got %v", err)
	}

	profile, err := fixture.service.ChangeRole(plainAdminActor, 2, "teacher_private")
	if err != nil {
		t.Fatalf("ChangeRole() unexpected error: %v", err)
	}
	if profile.Role != models.RoleTeacherPrivate || fixture.profiles.profiles[2].Role != models.RoleTeacherPrivate {
		t.Fatalf("expected role change to persist, got %#v", profile)
	}

	entry := fixture.audit.entries[len(fixture.audit.entries)-1]
	if entry.Action != "profile.role_changed" || entry.TableName != "profiles" || entry.RecordID != "2" {
		t.Fatalf("unexpected audit entry %#v", entry)
	}
	if entry.UserID == nil || *entry.UserID != 30 {
		t.Fatalf("expected plain admin actor id to be recorded, got %v", entry.UserID)
	}
}

func TestAdminServiceOrganizationApprovalDoesNotTouchProfiles(t *testing.T) {
	fixture := newAdminFixture()

	organization, err := fixture.service.SetOrganizationStatus(superAdminActor, 5, "approved")
	if err != nil {
		t.Fatalf("SetOrganizationStatus() unexpected error: %v", err)
	}
	if organization.VerificationStatus != models.VerificationApproved {
		t.Fatalf("expected approved organization, got %q", organization.VerificationStatus)
	}
	if fixture.profiles.profiles[2].VerificationStatus != models.VerificationPending {
		t.Fatal("expected member profile to stay pending")
	}

	entry := fixture.audit.entries[0]
	if entry.UserID == nil || *entry.UserID != 10 || entry.IPAddress != "203.0.113.5" {
		t.Fatalf("expected actor details in audit entry, got %#v", entry)
	}

	if _, err := fixture.service.SetOrganizationStatus(superAdminActor, 5, "verified"); !errors.Is(err, ErrInvalidVerificationFlow) {
		t.Fatalf("expected ErrInvalidVerificationFlow, got %v", err)
	}
}
