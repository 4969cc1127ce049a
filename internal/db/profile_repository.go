package db

import (
	"context"

	"github.com/edjs-platform/edjs/internal/models"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	database *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{database: database}
}

func (repo *ProfileRepository) FindByUserID(ctx context.Context, userID uint) (models.Profile, error) {
	var profile models.Profile
	if err := repo.database.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

func (repo *ProfileRepository) FindByID(profileID uint) (models.Profile, error) {
	var profile models.Profile
	if err := repo.database.First(&profile, profileID).Error; err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// FindConsentByUserID reads only the two consent flags.
func (repo *ProfileRepository) FindConsentByUserID(ctx context.Context, userID uint) (models.Profile, error) {
	var profile models.Profile
	if err := repo.database.WithContext(ctx).
		Select("id", "user_id", "privacy_accepted", "terms_accepted").
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// FindAccessByUserID reads only role and verification status.
func (repo *ProfileRepository) FindAccessByUserID(ctx context.Context, userID uint) (models.Profile, error) {
	var profile models.Profile
	if err := repo.database.WithContext(ctx).
		Select("id", "user_id", "role", "verification_status").
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

func (repo *ProfileRepository) List(status models.VerificationStatus) ([]models.Profile, error) {
	profiles := make([]models.Profile, 0)
	query := repo.database.Order("created_at DESC, id DESC")
	if status != "" {
		query = query.Where("verification_status = ?", status)
	}
	if err := query.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (repo *ProfileRepository) UpdateConsent(userID uint, privacyAccepted bool, termsAccepted bool) error {
	result := repo.database.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(map[string]any{
		"privacy_accepted": privacyAccepted,
		"terms_accepted":   termsAccepted,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (repo *ProfileRepository) UpdateRole(profileID uint, role models.Role) error {
	return repo.updateColumn(profileID, "role", role)
}

func (repo *ProfileRepository) UpdateVerificationStatus(profileID uint, status models.VerificationStatus) error {
	return repo.updateColumn(profileID, "verification_status", status)
}

func (repo *ProfileRepository) updateColumn(profileID uint, column string, value any) error {
	result := repo.database.Model(&models.Profile{}).Where("id = ?", profileID).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
