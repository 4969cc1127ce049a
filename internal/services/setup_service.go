package services

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/edjs-platform/edjs/internal/db"
	"github.com/edjs-platform/edjs/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrSetupDisabled       = errors.New("admin setup disabled")
	ErrSetupTokenInvalid   = errors.New("admin setup token invalid")
	ErrSetupFieldsRequired = errors.New("email, password and full name are required")
	ErrSetupAccountExists  = errors.New("admin setup account exists")
)

type SetupUserRepository interface {
	CountUsers() (int64, error)
	CreateAdministrator(user *models.User, profile *models.Profile) error
}

type AdministratorInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type SetupService struct {
	users      SetupUserRepository
	setupToken string
	now        func() time.Time
}

func NewSetupService(users SetupUserRepository, setupToken string) *SetupService {
	return &SetupService{users: users, setupToken: strings.TrimSpace(setupToken), now: time.Now}
}

func (service *SetupService) RequiresInitialSetup() (bool, error) {
	usersCount, err := service.users.CountUsers()
	if err != nil {
		return false, err
	}
	return usersCount == 0, nil
}

// AuthorizeToken compares the presented token with the configured one in
// constant time. An empty configured token disables setup entirely.
func (service *SetupService) AuthorizeToken(presented string) error {
	if service.setupToken == "" {
		return ErrSetupDisabled
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(presented)), []byte(service.setupToken)) != 1 {
		return ErrSetupTokenInvalid
	}
	return nil
}

// CreateAdministrator creates a confirmed admin_full account. E-mails that
// already have an account are refused with ErrSetupAccountExists.
func (service *SetupService) CreateAdministrator(input AdministratorInput) (models.User, error) {
	return service.createAdministrator(input, models.RoleAdminFull)
}

func (service *SetupService) createAdministrator(input AdministratorInput, role models.Role) (models.User, error) {
	email := NormalizeAuthEmail(input.Email)
	fullName := strings.TrimSpace(input.FullName)
	if email == "" || input.Password == "" || fullName == "" {
		return models.User{}, ErrSetupFieldsRequired
	}
	if err := ValidatePasswordStrength(input.Password); err != nil {
		return models.User{}, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	now := service.now().UTC()
	user := &models.User{
		Email:          email,
		PasswordHash:   string(passwordHash),
		EmailConfirmed: true,
		CreatedAt:      now,
	}
	profile := &models.Profile{
		Email:              email,
		Role:               role,
		VerificationStatus: models.VerificationApproved,
		PrivacyAccepted:    true,
		TermsAccepted:      true,
		FullName:           fullName,
	}
	if err := service.users.CreateAdministrator(user, profile); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			return models.User{}, ErrSetupAccountExists
		}
		return models.User{}, err
	}
	return *user, nil
}
