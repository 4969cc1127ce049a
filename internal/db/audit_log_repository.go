package db

import (
	"github.com/edjs-platform/edjs/internal/models"
	"gorm.io/gorm"
)

type AuditLogRepository struct {
	database *gorm.DB
}

func NewAuditLogRepository(database *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{database: database}
}

func (repo *AuditLogRepository) Create(entry *models.AuditLog) error {
	return repo.database.Create(entry).Error
}

func (repo *AuditLogRepository) ListRecent(limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries := make([]models.AuditLog, 0, limit)
	if err := repo.database.Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
