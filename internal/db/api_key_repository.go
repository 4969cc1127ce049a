package db

import (
	"time"

	"github.com/edjs-platform/edjs/internal/models"
	"gorm.io/gorm"
)

type APIKeyRepository struct {
	database *gorm.DB
}

func NewAPIKeyRepository(database *gorm.DB) *APIKeyRepository {
	return &APIKeyRepository{database: database}
}

func (repo *APIKeyRepository) Create(key *models.APIKey) error {
	return repo.database.Create(key).Error
}

func (repo *APIKeyRepository) List() ([]models.APIKey, error) {
	keys := make([]models.APIKey, 0)
	if err := repo.database.Order("created_at DESC, id DESC").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (repo *APIKeyRepository) FindByHash(keyHash string) (models.APIKey, error) {
	var key models.APIKey
	if err := repo.database.Where("key_hash = ?", keyHash).First(&key).Error; err != nil {
		return models.APIKey{}, err
	}
	return key, nil
}

func (repo *APIKeyRepository) Deactivate(keyID uint) error {
	result := repo.database.Model(&models.APIKey{}).Where("id = ?", keyID).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (repo *APIKeyRepository) Delete(keyID uint) error {
	result := repo.database.Delete(&models.APIKey{}, keyID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (repo *APIKeyRepository) TouchLastUsed(keyID uint, usedAt time.Time) error {
	return repo.database.Model(&models.APIKey{}).Where("id = ?", keyID).Update("last_used_at", usedAt).Error
}
