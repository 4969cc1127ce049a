package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edjs-platform/edjs/internal/db"
	"github.com/edjs-platform/edjs/internal/mail"
	"github.com/edjs-platform/edjs/internal/models"
	"github.com/edjs-platform/edjs/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegistrationCategory string

const (
	CategoryB2C RegistrationCategory = "b2c"
	CategoryB2B RegistrationCategory = "b2b"
)

type RegistrationStep string

const (
	StepCategory     RegistrationStep = "category"
	StepUserType     RegistrationStep = "user_type"
	StepIdentity     RegistrationStep = "identity"
	StepCredentials  RegistrationStep = "credentials"
	StepOrganization RegistrationStep = "organization"
)

// OtherSchool is the school selector value meaning "my school is not listed".
const OtherSchool = "other"

var (
	ErrRegistrationCategoryRequired      = errors.New("registration category required")
	ErrRegistrationUserTypeInvalid       = errors.New("registration user type invalid")
	ErrRegistrationStepUnknown           = errors.New("registration step unknown")
	ErrRegistrationIdentityIncomplete    = errors.New("registration identity incomplete")
	ErrRegistrationEmailInvalid          = errors.New("registration email invalid")
	ErrRegistrationEmailTaken            = errors.New("registration email taken")
	ErrRegistrationPasswordRequired      = errors.New("registration password required")
	ErrRegistrationPasswordMismatch      = errors.New("registration password mismatch")
	ErrRegistrationSchoolRequired        = errors.New("registration school required")
	ErrRegistrationSchoolNotFound        = errors.New("registration school not found")
	ErrRegistrationNewSchoolIncomplete   = errors.New("registration new school incomplete")
	ErrRegistrationProfessionalEmail     = errors.New("registration professional email required")
	ErrRegistrationAssociationIncomplete = errors.New("registration association incomplete")
	ErrRegistrationDocumentsRequired     = errors.New("registration documents required")
	ErrRegistrationDocumentInvalid       = errors.New("registration document invalid")
)

var registrationUserTypes = []models.Role{
	models.RoleTeacherPrivate,
	models.RoleTeacherPublic,
	models.RoleAssociation,
}

type OrganizationInput struct {
	Name      string `json:"name"`
	ICENumber string `json:"ice_number"`
	Address   string `json:"address"`
	City      string `json:"city"`
}

type RegistrationInput struct {
	Category          RegistrationCategory `json:"category"`
	UserType          string               `json:"user_type"`
	FullName          string               `json:"full_name"`
	Email             string               `json:"email"`
	Phone             string               `json:"phone"`
	WhatsApp          string               `json:"whatsapp"`
	Password          string               `json:"password"`
	ConfirmPassword   string               `json:"confirm_password"`
	ProfessionalEmail string               `json:"professional_email"`
	SchoolID          string               `json:"school_id"`
	NewSchool         OrganizationInput    `json:"new_school"`
	Association       OrganizationInput    `json:"association"`
	ContactPerson     string               `json:"contact_person"`
	DocumentPaths     []string             `json:"document_paths"`
}

type RegistrationResult struct {
	User             models.User
	Profile          models.Profile
	Organization     *models.Organization
	ConfirmationSent bool
}

type RegistrationUserRepository interface {
	ExistsByNormalizedEmail(email string) (bool, error)
	FindByNormalizedEmail(email string) (models.User, error)
}

type RegistrationOrganizationRepository interface {
	FindByID(organizationID uint) (models.Organization, error)
	ListSelectableSchools(schoolType models.OrganizationType) ([]models.Organization, error)
}

type RegistrationWriter interface {
	Create(record db.RegistrationRecord) error
}

type RegistrationService struct {
	users         RegistrationUserRepository
	organizations RegistrationOrganizationRepository
	registrations RegistrationWriter
	auth          *AuthService
	mailer        mail.Mailer
	publicURL     string
	logger        *slog.Logger
	now           func() time.Time
}

func NewRegistrationService(
	users RegistrationUserRepository,
	organizations RegistrationOrganizationRepository,
	registrations RegistrationWriter,
	auth *AuthService,
	mailer mail.Mailer,
	publicURL string,
	logger *slog.Logger,
) *RegistrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		users:         users,
		organizations: organizations,
		registrations: registrations,
		auth:          auth,
		mailer:        mailer,
		publicURL:     strings.TrimRight(strings.TrimSpace(publicURL), "/"),
		logger:        logger,
		now:           time.Now,
	}
}

func RegistrationSteps(category RegistrationCategory) ([]RegistrationStep, error) {
	switch category {
	case CategoryB2C:
		return []RegistrationStep{StepCategory, StepIdentity, StepCredentials}, nil
	case CategoryB2B:
		return []RegistrationStep{StepCategory, StepUserType, StepIdentity, StepCredentials, StepOrganization}, nil
	default:
		return nil, ErrRegistrationCategoryRequired
	}
}

// RegistrationRole is the role the submitted profile will hold.
func RegistrationRole(input RegistrationInput) (models.Role, error) {
	switch input.Category {
	case CategoryB2C:
		return models.RoleB2CUser, nil
	case CategoryB2B:
		role, ok := models.ParseRole(input.UserType)
		if !ok {
			return "", ErrRegistrationUserTypeInvalid
		}
		for _, allowed := range registrationUserTypes {
			if role == allowed {
				return role, nil
			}
		}
		return "", ErrRegistrationUserTypeInvalid
	default:
		return "", ErrRegistrationCategoryRequired
	}
}

func (service *RegistrationService) SelectableSchools(role models.Role) ([]models.Organization, error) {
	if !role.IsTeacher() {
		return nil, ErrRegistrationUserTypeInvalid
	}
	return service.organizations.ListSelectableSchools(models.SchoolTypeForRole(role))
}

// ValidateStep checks one wizard step without writing anything.
func (service *RegistrationService) ValidateStep(step RegistrationStep, input RegistrationInput) error {
	switch step {
	case StepCategory:
		if input.Category != CategoryB2C && input.Category != CategoryB2B {
			return ErrRegistrationCategoryRequired
		}
		return nil
	case StepUserType:
		_, err := RegistrationRole(input)
		return err
	case StepIdentity:
		return validateRegistrationIdentity(input)
	case StepCredentials:
		return validateRegistrationCredentials(input)
	case StepOrganization:
		_, err := service.resolveOrganization(input)
		return err
	default:
		return ErrRegistrationStepUnknown
	}
}

// Validate runs every step of the input's category in wizard order and
// returns the first failing step.
func (service *RegistrationService) Validate(input RegistrationInput) (RegistrationStep, error) {
	steps, err := RegistrationSteps(input.Category)
	if err != nil {
		return StepCategory, err
	}
	for _, step := range steps {
		if err := service.ValidateStep(step, input); err != nil {
			return step, err
		}
	}
	return "", nil
}

func validateRegistrationIdentity(input RegistrationInput) error {
	if strings.TrimSpace(input.FullName) == "" || strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Phone) == "" {
		return ErrRegistrationIdentityIncomplete
	}
	if NormalizeAuthEmail(input.Email) == "" {
		return ErrRegistrationEmailInvalid
	}
	return nil
}

func validateRegistrationCredentials(input RegistrationInput) error {
	if input.Password == "" || input.ConfirmPassword == "" {
		return ErrRegistrationPasswordRequired
	}
	if input.Password != input.ConfirmPassword {
		return ErrRegistrationPasswordMismatch
	}
	return ValidatePasswordStrength(input.Password)
}

type resolvedOrganization struct {
	existing *models.Organization
	created  *models.Organization
}

func (service *RegistrationService) resolveOrganization(input RegistrationInput) (resolvedOrganization, error) {
	role, err := RegistrationRole(input)
	if err != nil {
		return resolvedOrganization{}, err
	}

	switch {
	case role.IsTeacher():
		return service.resolveSchool(role, input)
	case role == models.RoleAssociation:
		if strings.TrimSpace(input.Association.Name) == "" || strings.TrimSpace(input.ContactPerson) == "" {
			return resolvedOrganization{}, ErrRegistrationAssociationIncomplete
		}
		if len(uniqueDocumentPaths(input.DocumentPaths)) == 0 {
			return resolvedOrganization{}, ErrRegistrationDocumentsRequired
		}
		return resolvedOrganization{created: newOrganization(input.Association, models.OrganizationAssociation, input.ContactPerson)}, nil
	default:
		return resolvedOrganization{}, nil
	}
}

func (service *RegistrationService) resolveSchool(role models.Role, input RegistrationInput) (resolvedOrganization, error) {
	schoolID := strings.TrimSpace(input.SchoolID)
	if schoolID == "" {
		return resolvedOrganization{}, ErrRegistrationSchoolRequired
	}
	if strings.TrimSpace(input.ProfessionalEmail) == "" {
		return resolvedOrganization{}, ErrRegistrationProfessionalEmail
	}
	if NormalizeAuthEmail(input.ProfessionalEmail) == "" {
		return resolvedOrganization{}, ErrRegistrationEmailInvalid
	}
	if role == models.RoleTeacherPublic && len(uniqueDocumentPaths(input.DocumentPaths)) == 0 {
		return resolvedOrganization{}, ErrRegistrationDocumentsRequired
	}

	schoolType := models.SchoolTypeForRole(role)
	if schoolID == OtherSchool {
		if strings.TrimSpace(input.NewSchool.Name) == "" || strings.TrimSpace(input.NewSchool.City) == "" {
			return resolvedOrganization{}, ErrRegistrationNewSchoolIncomplete
		}
		return resolvedOrganization{created: newOrganization(input.NewSchool, schoolType, input.FullName)}, nil
	}

	parsedID, err := strconv.ParseUint(schoolID, 10, 64)
	if err != nil || parsedID == 0 {
		return resolvedOrganization{}, ErrRegistrationSchoolNotFound
	}
	school, err := service.organizations.FindByID(uint(parsedID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resolvedOrganization{}, ErrRegistrationSchoolNotFound
		}
		return resolvedOrganization{}, err
	}
	if school.Type != schoolType {
		return resolvedOrganization{}, ErrRegistrationSchoolNotFound
	}
	if err := ValidateEmailDomain(input.ProfessionalEmail, school.Domain); err != nil {
		return resolvedOrganization{}, err
	}
	return resolvedOrganization{existing: &school}, nil
}

func newOrganization(input OrganizationInput, organizationType models.OrganizationType, contactPerson string) *models.Organization {
	return &models.Organization{
		Name:               strings.TrimSpace(input.Name),
		Type:               organizationType,
		ICENumber:          strings.TrimSpace(input.ICENumber),
		Address:            strings.TrimSpace(input.Address),
		City:               strings.TrimSpace(input.City),
		ContactPerson:      strings.TrimSpace(contactPerson),
		VerificationStatus: models.VerificationPending,
	}
}

func uniqueDocumentPaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" {
			continue
		}
		if _, exists := seen[path]; exists {
			continue
		}
		seen[path] = struct{}{}
		unique = append(unique, path)
	}
	return unique
}

// Submit validates the whole wizard and writes the account in one
// transaction. The confirmation mail is best effort.
func (service *RegistrationService) Submit(ctx context.Context, input RegistrationInput) (RegistrationResult, error) {
	if _, err := service.Validate(input); err != nil {
		return RegistrationResult{}, err
	}

	role, err := RegistrationRole(input)
	if err != nil {
		return RegistrationResult{}, err
	}
	organization, err := service.resolveOrganization(input)
	if err != nil {
		return RegistrationResult{}, err
	}

	documentPaths := uniqueDocumentPaths(input.DocumentPaths)
	for _, path := range documentPaths {
		if !storage.IsVerificationKey(path) {
			return RegistrationResult{}, ErrRegistrationDocumentInvalid
		}
	}

	email := NormalizeAuthEmail(input.Email)
	exists, err := service.users.ExistsByNormalizedEmail(email)
	if err != nil {
		return RegistrationResult{}, err
	}
	if exists {
		return RegistrationResult{}, ErrRegistrationEmailTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegistrationResult{}, err
	}

	now := service.now().UTC()
	user := &models.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		CreatedAt:    now,
	}
	profile := &models.Profile{
		Email:              email,
		Role:               role,
		VerificationStatus: models.DefaultVerificationStatus(role),
		FullName:           strings.TrimSpace(input.FullName),
		Phone:              strings.TrimSpace(input.Phone),
		WhatsApp:           firstNonEmpty(input.WhatsApp, input.Phone),
		ProfessionalEmail:  firstNonEmpty(NormalizeAuthEmail(input.ProfessionalEmail), email),
		ContactPerson:      strings.TrimSpace(input.ContactPerson),
	}
	if organization.existing != nil {
		profile.OrganizationID = &organization.existing.ID
	}

	err = service.registrations.Create(db.RegistrationRecord{
		User:          user,
		Profile:       profile,
		Organization:  organization.created,
		DocumentPaths: documentPaths,
	})
	if err != nil {
		if errors.Is(err, db.ErrDocumentsUnavailable) {
			return RegistrationResult{}, ErrRegistrationDocumentInvalid
		}
		if errors.Is(err, db.ErrEmailTaken) {
			return RegistrationResult{}, ErrRegistrationEmailTaken
		}
		return RegistrationResult{}, err
	}

	result := RegistrationResult{User: *user, Profile: *profile, Organization: organization.created}
	if organization.existing != nil {
		result.Organization = organization.existing
	}
	result.ConfirmationSent = service.sendConfirmation(ctx, *user, profile.FullName)

	service.logger.InfoContext(ctx, "registration completed",
		"user_id", user.ID,
		"role", role,
		"verification_status", profile.VerificationStatus,
		"documents", len(documentPaths),
	)
	return result, nil
}

// ResendConfirmation answers the same way whether or not the address is
// registered.
func (service *RegistrationService) ResendConfirmation(ctx context.Context, emailRaw string) error {
	email := NormalizeAuthEmail(emailRaw)
	if email == "" {
		return ErrRegistrationEmailInvalid
	}
	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if user.EmailConfirmed {
		return nil
	}
	service.sendConfirmation(ctx, user, "")
	return nil
}

func (service *RegistrationService) sendConfirmation(ctx context.Context, user models.User, name string) bool {
	if service.mailer == nil || service.auth == nil {
		return false
	}
	token, err := service.auth.BuildEmailConfirmationToken(user)
	if err != nil {
		service.logger.ErrorContext(ctx, "build confirmation token failed", "user_id", user.ID, "error", err)
		return false
	}

	link := service.publicURL + "/api/auth/confirm?token=" + url.QueryEscape(token)
	message, err := mail.ConfirmationMessage(user.Email, mail.ConfirmationData{Name: name, Link: link})
	if err != nil {
		service.logger.ErrorContext(ctx, "render confirmation mail failed", "user_id", user.ID, "error", err)
		return false
	}
	if err := service.mailer.Send(ctx, message); err != nil {
		service.logger.WarnContext(ctx, "confirmation mail not sent", "user_id", user.ID, "error", err)
		return false
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
