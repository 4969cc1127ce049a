package db

import (
	"github.com/edjs-platform/edjs/internal/models"
	"gorm.io/gorm"
)

type InvitationRepository struct {
	database *gorm.DB
}

func NewInvitationRepository(database *gorm.DB) *InvitationRepository {
	return &InvitationRepository{database: database}
}

func (repo *InvitationRepository) Create(invitation *models.AdminInvitation) error {
	return repo.database.Create(invitation).Error
}

func (repo *InvitationRepository) FindByToken(token string) (models.AdminInvitation, error) {
	var invitation models.AdminInvitation
	if err := repo.database.Where("invitation_token = ?", token).First(&invitation).Error; err != nil {
		return models.AdminInvitation{}, err
	}
	return invitation, nil
}

func (repo *InvitationRepository) List() ([]models.AdminInvitation, error) {
	invitations := make([]models.AdminInvitation, 0)
	if err := repo.database.Order("created_at DESC, id DESC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

func (repo *InvitationRepository) MarkAccepted(invitationID uint) error {
	return repo.database.Model(&models.AdminInvitation{}).
		Where("id = ?", invitationID).
		Update("status", models.InvitationStatusAccepted).Error
}
