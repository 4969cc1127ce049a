package api

import (
	"errors"
	"net/url"
	"strings"

	"github.com/edjs-platform/edjs/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// serviceErrors is scanned in order; the first errors.Is match wins.
var serviceErrors = []errorMapping{
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "invalid_credentials"},
	{services.ErrAuthCredentialsInvalid, fiber.StatusBadRequest, "invalid_credentials"},
	{services.ErrEmailNotConfirmed, fiber.StatusForbidden, "email_not_confirmed"},
	{services.ErrConsentRequired, fiber.StatusBadRequest, "consent_required"},
	{services.ErrRedirectAborted, fiber.StatusRequestTimeout, "redirect_aborted"},
	{services.ErrRedirectUnavailable, fiber.StatusServiceUnavailable, "redirect_unavailable"},
	{services.ErrTokenExpired, fiber.StatusBadRequest, "token_expired"},
	{services.ErrRecoveryTokenUsed, fiber.StatusBadRequest, "recovery_token_used"},
	{services.ErrTokenMissing, fiber.StatusBadRequest, "token_invalid"},
	{services.ErrTokenInvalid, fiber.StatusBadRequest, "token_invalid"},
	{services.ErrTokenInvalidPurpose, fiber.StatusBadRequest, "token_invalid"},
	{services.ErrTokenInvalidUserID, fiber.StatusBadRequest, "token_invalid"},
	{services.ErrTokenInvalidPasswordState, fiber.StatusBadRequest, "recovery_token_used"},
	{services.ErrWeakPassword, fiber.StatusBadRequest, "weak_password"},
	{services.ErrPasswordTooLong, fiber.StatusBadRequest, "password_too_long"},
	{services.ErrAdminRequired, fiber.StatusForbidden, "admin_required"},
	{services.ErrAdminGrantForbidden, fiber.StatusForbidden, "admin_grant_forbidden"},
	{services.ErrAdminSelfRoleChange, fiber.StatusForbidden, "self_role_change"},
	{services.ErrInvalidRole, fiber.StatusBadRequest, "invalid_role"},
	{services.ErrInvalidVerificationFlow, fiber.StatusBadRequest, "invalid_status"},
	{services.ErrAPIKeyNameRequired, fiber.StatusBadRequest, "api_key_name_required"},
	{services.ErrAPIKeyExpiryPast, fiber.StatusBadRequest, "api_key_expiry_past"},
	{services.ErrAPIKeyInvalid, fiber.StatusUnauthorized, "api_key_invalid"},
	{services.ErrAPIKeyNotFound, fiber.StatusNotFound, "not_found"},
	{services.ErrInvitationForbidden, fiber.StatusForbidden, "invitation_forbidden"},
	{services.ErrInvitationInvalidEmail, fiber.StatusBadRequest, "invitation_invalid_email"},
	{services.ErrInvitationInvalidRole, fiber.StatusBadRequest, "invitation_invalid_role"},
	{services.ErrInvitationNotFound, fiber.StatusNotFound, "invitation_not_found"},
	{services.ErrInvitationNotPending, fiber.StatusConflict, "invitation_not_pending"},
	{services.ErrInvitationExpired, fiber.StatusGone, "invitation_expired"},
	{services.ErrInvitationAccountExists, fiber.StatusConflict, "invitation_account_exists"},
	{services.ErrRegistrationCategoryRequired, fiber.StatusUnprocessableEntity, "registration_category_required"},
	{services.ErrRegistrationUserTypeInvalid, fiber.StatusUnprocessableEntity, "registration_user_type_invalid"},
	{services.ErrRegistrationStepUnknown, fiber.StatusBadRequest, "registration_step_unknown"},
	{services.ErrRegistrationIdentityIncomplete, fiber.StatusUnprocessableEntity, "registration_identity_incomplete"},
	{services.ErrRegistrationEmailInvalid, fiber.StatusUnprocessableEntity, "registration_email_invalid"},
	{services.ErrRegistrationEmailTaken, fiber.StatusConflict, "registration_email_taken"},
	{services.ErrRegistrationPasswordRequired, fiber.StatusUnprocessableEntity, "registration_password_required"},
	{services.ErrRegistrationPasswordMismatch, fiber.StatusUnprocessableEntity, "registration_password_mismatch"},
	{services.ErrRegistrationSchoolRequired, fiber.StatusUnprocessableEntity, "registration_school_required"},
	{services.ErrRegistrationSchoolNotFound, fiber.StatusUnprocessableEntity, "registration_school_not_found"},
	{services.ErrRegistrationNewSchoolIncomplete, fiber.StatusUnprocessableEntity, "registration_new_school_incomplete"},
	{services.ErrRegistrationProfessionalEmail, fiber.StatusUnprocessableEntity, "registration_professional_email"},
	{services.ErrRegistrationAssociationIncomplete, fiber.StatusUnprocessableEntity, "registration_association_incomplete"},
	{services.ErrRegistrationDocumentsRequired, fiber.StatusUnprocessableEntity, "registration_documents_required"},
	{services.ErrRegistrationDocumentInvalid, fiber.StatusUnprocessableEntity, "registration_document_invalid"},
	{services.ErrEmailDomainMismatch, fiber.StatusUnprocessableEntity, "registration_email_domain_mismatch"},
	{services.ErrDocumentBatchEmpty, fiber.StatusBadRequest, "document_batch_empty"},
	{services.ErrDocumentBatchTooLarge, fiber.StatusRequestEntityTooLarge, "document_batch_too_large"},
	{services.ErrDocumentTypeNotAllowed, fiber.StatusUnsupportedMediaType, "document_type_not_allowed"},
	{services.ErrDocumentTooLarge, fiber.StatusRequestEntityTooLarge, "document_too_large"},
	{services.ErrDocumentEmpty, fiber.StatusBadRequest, "document_empty"},
	{services.ErrDocumentStorage, fiber.StatusInternalServerError, "document_storage"},
	{services.ErrDocumentNotFound, fiber.StatusNotFound, "not_found"},
	{services.ErrSetupDisabled, fiber.StatusUnauthorized, "setup_disabled"},
	{services.ErrSetupTokenInvalid, fiber.StatusUnauthorized, "setup_token_invalid"},
	{services.ErrSetupFieldsRequired, fiber.StatusBadRequest, "setup_fields_required"},
	{services.ErrSetupAccountExists, fiber.StatusConflict, "setup_account_exists"},
	{gorm.ErrRecordNotFound, fiber.StatusNotFound, "not_found"},
}

func classifyError(err error) (int, string, bool) {
	for _, mapping := range serviceErrors {
		if errors.Is(err, mapping.err) {
			return mapping.status, mapping.code, true
		}
	}
	return fiber.StatusInternalServerError, "internal_error", false
}

func (handler *Handler) localizedError(c *fiber.Ctx, code string) string {
	return handler.i18n.Translate(currentLanguage(c), "error."+code)
}

// apiError writes the JSON error body used by every /api route.
func (handler *Handler) apiError(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": handler.localizedError(c, code),
	})
}

// respondServiceError maps a service error to its status and code. Unknown
// errors are logged and answered with a generic 500.
func (handler *Handler) respondServiceError(c *fiber.Ctx, err error) error {
	status, code, known := classifyError(err)
	if !known {
		handler.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return handler.apiError(c, status, code)
}

func sanitizeRedirectPath(raw string, fallback string) string {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return fallback
	}
	if strings.HasPrefix(candidate, "//") || !strings.HasPrefix(candidate, "/") {
		return fallback
	}
	parsed, err := url.Parse(candidate)
	if err != nil || parsed.IsAbs() {
		return fallback
	}
	return candidate
}
