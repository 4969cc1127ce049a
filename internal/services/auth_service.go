package services

import (
	"errors"
	"strings"
	"time"

	"github.com/edjs-platform/edjs/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrRecoveryTokenUsed  = errors.New("recovery token already used")
)

type AuthUserRepository interface {
	FindByNormalizedEmail(email string) (models.User, error)
	FindByID(userID uint) (models.User, error)
	ConfirmEmail(userID uint) error
	UpdatePassword(userID uint, passwordHash string, mustChangePassword bool) error
}

type AuthService struct {
	users     AuthUserRepository
	secretKey []byte
	now       func() time.Time
}

func NewAuthService(users AuthUserRepository, secretKey []byte) *AuthService {
	return &AuthService{users: users, secretKey: secretKey, now: time.Now}
}

// SignIn exchanges credentials for the user record. Unknown e-mail and wrong
// password are indistinguishable to the caller.
func (service *AuthService) SignIn(emailRaw string, password string) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(emailRaw, password)
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if !user.EmailConfirmed {
		return models.User{}, ErrEmailNotConfirmed
	}
	return user, nil
}

func (service *AuthService) FindByID(userID uint) (models.User, error) {
	return service.users.FindByID(userID)
}

func (service *AuthService) IssueSessionToken(user models.User, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return BuildUserToken(service.secretKey, TokenPurposeSession, user.ID, "", ttl, service.now())
}

func (service *AuthService) ResolveSession(rawToken string) (models.User, error) {
	claims, err := ParseUserToken(service.secretKey, TokenPurposeSession, rawToken, service.now())
	if err != nil {
		return models.User{}, err
	}
	return service.users.FindByID(claims.UserID)
}

func (service *AuthService) BuildEmailConfirmationToken(user models.User) (string, error) {
	return BuildUserToken(service.secretKey, TokenPurposeEmailConfirmation, user.ID, "", DefaultEmailConfirmationTTL, service.now())
}

// ConfirmEmail is idempotent for an already confirmed account.
func (service *AuthService) ConfirmEmail(rawToken string) (models.User, error) {
	claims, err := ParseUserToken(service.secretKey, TokenPurposeEmailConfirmation, rawToken, service.now())
	if err != nil {
		return models.User{}, err
	}

	user, err := service.users.FindByID(claims.UserID)
	if err != nil {
		return models.User{}, err
	}
	if user.EmailConfirmed {
		return user, nil
	}
	if err := service.users.ConfirmEmail(user.ID); err != nil {
		return models.User{}, err
	}
	user.EmailConfirmed = true
	return user, nil
}

func (service *AuthService) BuildRecoveryToken(user models.User) (string, error) {
	return BuildUserToken(service.secretKey, TokenPurposePasswordRecovery, user.ID, user.PasswordHash, DefaultPasswordRecoveryTTL, service.now())
}

// ResetPassword consumes a recovery token. The token stops working once the
// password it was issued against changes. Recovering also confirms the
// e-mail, since the link was delivered to it.
func (service *AuthService) ResetPassword(rawToken string, newPassword string) (models.User, error) {
	claims, err := ParseUserToken(service.secretKey, TokenPurposePasswordRecovery, rawToken, service.now())
	if err != nil {
		return models.User{}, err
	}

	user, err := service.users.FindByID(claims.UserID)
	if err != nil {
		return models.User{}, err
	}
	if !IsPasswordStateFingerprintMatch(claims.PasswordState, user.PasswordHash) {
		return models.User{}, ErrRecoveryTokenUsed
	}

	newPassword = strings.TrimSpace(newPassword)
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return models.User{}, err
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	if err := service.users.UpdatePassword(user.ID, string(passwordHash), false); err != nil {
		return models.User{}, err
	}
	if !user.EmailConfirmed {
		if err := service.users.ConfirmEmail(user.ID); err != nil {
			return models.User{}, err
		}
		user.EmailConfirmed = true
	}

	user.PasswordHash = string(passwordHash)
	user.MustChangePassword = false
	return user, nil
}
