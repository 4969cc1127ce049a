package services

import (
	"errors"
	"fmt"

	"github.com/edjs-platform/edjs/internal/models"
)

var (
	ErrAdminRequired           = errors.New("administrator role required")
	ErrAdminGrantForbidden     = errors.New("not allowed to grant administrator roles")
	ErrAdminSelfRoleChange     = errors.New("cannot change own role")
	ErrInvalidRole             = errors.New("invalid role")
	ErrInvalidVerificationFlow = errors.New("invalid verification status")
)

type AdminProfileRepository interface {
	List(status models.VerificationStatus) ([]models.Profile, error)
	FindByID(profileID uint) (models.Profile, error)
	UpdateRole(profileID uint, role models.Role) error
	UpdateVerificationStatus(profileID uint, status models.VerificationStatus) error
}

type AdminOrganizationRepository interface {
	List(status models.VerificationStatus) ([]models.Organization, error)
	FindByID(organizationID uint) (models.Organization, error)
	UpdateVerificationStatus(organizationID uint, status models.VerificationStatus) error
}

type AdminService struct {
	profiles      AdminProfileRepository
	organizations AdminOrganizationRepository
	audit         *AuditService
}

func NewAdminService(profiles AdminProfileRepository, organizations AdminOrganizationRepository, audit *AuditService) *AdminService {
	return &AdminService{profiles: profiles, organizations: organizations, audit: audit}
}

func requireAdminActor(actor Actor) error {
	if !actor.Role.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// ListProfiles returns every profile, or only those with status when it is
// non-empty.
func (service *AdminService) ListProfiles(actor Actor, status models.VerificationStatus) ([]models.Profile, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	return service.profiles.List(status)
}

func (service *AdminService) Profile(actor Actor, profileID uint) (models.Profile, error) {
	if err := requireAdminActor(actor); err != nil {
		return models.Profile{}, err
	}
	return service.profiles.FindByID(profileID)
}

func (service *AdminService) ChangeRole(actor Actor, profileID uint, rawRole string) (models.Profile, error) {
	if err := requireAdminActor(actor); err != nil {
		return models.Profile{}, err
	}
	role, ok := models.ParseRole(rawRole)
	if !ok {
		return models.Profile{}, ErrInvalidRole
	}

	profile, err := service.profiles.FindByID(profileID)
	if err != nil {
		return models.Profile{}, err
	}
	if profile.UserID == actor.UserID {
		return models.Profile{}, ErrAdminSelfRoleChange
	}
	if (role.IsAdmin() || profile.Role.IsAdmin()) && !actor.Role.CanInviteAdmins() {
		return models.Profile{}, ErrAdminGrantForbidden
	}
	if profile.Role == role {
		return profile, nil
	}

	if err := service.profiles.UpdateRole(profile.ID, role); err != nil {
		return models.Profile{}, err
	}
	if err := service.audit.Record(actor, "profile.role_changed", "profiles", profile.ID, map[string]any{
		"previous_role": profile.Role,
		"role":          role,
	}); err != nil {
		return models.Profile{}, fmt.Errorf("audit role change: %w", err)
	}

	profile.Role = role
	return profile, nil
}

// ApproveVerification moves a profile from pending to approved. Approving an
// approved profile is a no-op.
func (service *AdminService) ApproveVerification(actor Actor, profileID uint) (models.Profile, error) {
	return service.setVerification(actor, profileID, models.VerificationApproved, "profile.verification_approved")
}

// RevokeVerification is the only path from approved back to pending.
func (service *AdminService) RevokeVerification(actor Actor, profileID uint) (models.Profile, error) {
	return service.setVerification(actor, profileID, models.VerificationPending, "profile.verification_revoked")
}

func (service *AdminService) setVerification(actor Actor, profileID uint, status models.VerificationStatus, action string) (models.Profile, error) {
	if err := requireAdminActor(actor); err != nil {
		return models.Profile{}, err
	}

	profile, err := service.profiles.FindByID(profileID)
	if err != nil {
		return models.Profile{}, err
	}
	if profile.VerificationStatus == status {
		return profile, nil
	}

	if err := service.profiles.UpdateVerificationStatus(profile.ID, status); err != nil {
		return models.Profile{}, err
	}
	if err := service.audit.Record(actor, action, "profiles", profile.ID, map[string]any{
		"verification_status": status,
	}); err != nil {
		return models.Profile{}, fmt.Errorf("audit verification change: %w", err)
	}

	profile.VerificationStatus = status
	return profile, nil
}

func (service *AdminService) ListOrganizations(actor Actor, status models.VerificationStatus) ([]models.Organization, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	return service.organizations.List(status)
}

// SetOrganizationStatus changes only the organization row. Profiles that
// reference it keep their own verification status.
func (service *AdminService) SetOrganizationStatus(actor Actor, organizationID uint, rawStatus string) (models.Organization, error) {
	if err := requireAdminActor(actor); err != nil {
		return models.Organization{}, err
	}
	status, ok := models.ParseVerificationStatus(rawStatus)
	if !ok {
		return models.Organization{}, ErrInvalidVerificationFlow
	}

	organization, err := service.organizations.FindByID(organizationID)
	if err != nil {
		return models.Organization{}, err
	}
	if organization.VerificationStatus == status {
		return organization, nil
	}

	if err := service.organizations.UpdateVerificationStatus(organization.ID, status); err != nil {
		return models.Organization{}, err
	}
	if err := service.audit.Record(actor, "organization.verification_changed", "organizations", organization.ID, map[string]any{
		"verification_status": status,
	}); err != nil {
		return models.Organization{}, fmt.Errorf("audit organization change: %w", err)
	}

	organization.VerificationStatus = status
	return organization, nil
}

func (service *AdminService) AuditLog(actor Actor, limit int) ([]models.AuditLog, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	return service.audit.Recent(limit)
}
