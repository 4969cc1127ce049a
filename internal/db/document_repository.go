package db

import (
	"github.com/edjs-platform/edjs/internal/models"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	database *gorm.DB
}

func NewDocumentRepository(database *gorm.DB) *DocumentRepository {
	return &DocumentRepository{database: database}
}

func (repo *DocumentRepository) Create(document *models.VerificationDocument) error {
	return repo.database.Create(document).Error
}

func (repo *DocumentRepository) ListByUser(userID uint) ([]models.VerificationDocument, error) {
	documents := make([]models.VerificationDocument, 0)
	if err := repo.database.Where("user_id = ?", userID).Order("id ASC").Find(&documents).Error; err != nil {
		return nil, err
	}
	return documents, nil
}

func (repo *DocumentRepository) FindByID(documentID uint) (models.VerificationDocument, error) {
	var document models.VerificationDocument
	if err := repo.database.First(&document, documentID).Error; err != nil {
		return models.VerificationDocument{}, err
	}
	return document, nil
}

// CountUnclaimed reports how many of paths exist and are not yet linked to a user.
func (repo *DocumentRepository) CountUnclaimed(paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	var count int64
	if err := repo.database.Model(&models.VerificationDocument{}).
		Where("storage_path IN ? AND user_id IS NULL", paths).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
