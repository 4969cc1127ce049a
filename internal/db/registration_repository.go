package db

import (
	"errors"
	"fmt"

	"github.com/edjs-platform/edjs/internal/models"
	"gorm.io/gorm"
)

var (
	ErrDocumentsUnavailable = errors.New("documents unavailable")
	// ErrEmailTaken reports that another user already owns the normalized e-mail.
	ErrEmailTaken = errors.New("email already registered")
)

type RegistrationRepository struct {
	database *gorm.DB
}

func NewRegistrationRepository(database *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{database: database}
}

// RegistrationRecord groups the rows written by one registration submit.
// Organization is optional and, when set, is created before the profile.
type RegistrationRecord struct {
	User          *models.User
	Profile       *models.Profile
	Organization  *models.Organization
	DocumentPaths []string
}

func (repo *RegistrationRepository) Create(record RegistrationRecord) error {
	if record.User == nil || record.Profile == nil {
		return errors.New("user and profile are required")
	}

	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record.User).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}

		if record.Organization != nil {
			if err := tx.Create(record.Organization).Error; err != nil {
				return fmt.Errorf("create organization: %w", err)
			}
			record.Profile.OrganizationID = &record.Organization.ID
		}

		record.Profile.UserID = record.User.ID
		if err := tx.Create(record.Profile).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}

		if len(record.DocumentPaths) == 0 {
			return nil
		}
		result := tx.Model(&models.VerificationDocument{}).
			Where("storage_path IN ? AND user_id IS NULL", record.DocumentPaths).
			Update("user_id", record.User.ID)
		if result.Error != nil {
			return fmt.Errorf("link documents: %w", result.Error)
		}
		if result.RowsAffected != int64(len(record.DocumentPaths)) {
			return ErrDocumentsUnavailable
		}
		return nil
	})
}
