package db

import "gorm.io/gorm"

type Repositories struct {
	Users         *UserRepository
	Profiles      *ProfileRepository
	Organizations *OrganizationRepository
	Invitations   *InvitationRepository
	APIKeys       *APIKeyRepository
	Documents     *DocumentRepository
	AuditLogs     *AuditLogRepository
	Registrations *RegistrationRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(database),
		Profiles:      NewProfileRepository(database),
		Organizations: NewOrganizationRepository(database),
		Invitations:   NewInvitationRepository(database),
		APIKeys:       NewAPIKeyRepository(database),
		Documents:     NewDocumentRepository(database),
		AuditLogs:     NewAuditLogRepository(database),
		Registrations: NewRegistrationRepository(database),
	}
}
