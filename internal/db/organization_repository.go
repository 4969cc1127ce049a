package db

import (
	"github.com/edjs-platform/edjs/internal/models"
	"gorm.io/gorm"
)

type OrganizationRepository struct {
	database *gorm.DB
}

func NewOrganizationRepository(database *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{database: database}
}

func (repo *OrganizationRepository) FindByID(organizationID uint) (models.Organization, error) {
	var organization models.Organization
	if err := repo.database.First(&organization, organizationID).Error; err != nil {
		return models.Organization{}, err
	}
	return organization, nil
}

// ListSelectableSchools returns schools a teacher may attach to while registering.
func (repo *OrganizationRepository) ListSelectableSchools(schoolType models.OrganizationType) ([]models.Organization, error) {
	schools := make([]models.Organization, 0)
	query := repo.database.
		Where("verification_status IN ?", []models.VerificationStatus{models.VerificationApproved, models.VerificationPending}).
		Order("name ASC")
	if schoolType != "" {
		query = query.Where("type = ?", schoolType)
	} else {
		query = query.Where("type IN ?", []models.OrganizationType{models.OrganizationPrivateSchool, models.OrganizationPublicSchool})
	}
	if err := query.Find(&schools).Error; err != nil {
		return nil, err
	}
	return schools, nil
}

func (repo *OrganizationRepository) List(status models.VerificationStatus) ([]models.Organization, error) {
	organizations := make([]models.Organization, 0)
	query := repo.database.Order("created_at DESC, id DESC")
	if status != "" {
		query = query.Where("verification_status = ?", status)
	}
	if err := query.Find(&organizations).Error; err != nil {
		return nil, err
	}
	return organizations, nil
}

func (repo *OrganizationRepository) Create(organization *models.Organization) error {
	return repo.database.Create(organization).Error
}

// UpdateVerificationStatus touches only the organization row; profiles that
// reference it keep their own status.
func (repo *OrganizationRepository) UpdateVerificationStatus(organizationID uint, status models.VerificationStatus) error {
	result := repo.database.Model(&models.Organization{}).
		Where("id = ?", organizationID).
		Update("verification_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
