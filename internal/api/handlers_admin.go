package api

import (
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/edjs-platform/edjs/internal/models"
	"github.com/edjs-platform/edjs/internal/services"
	"github.com/gofiber/fiber/v2"
)

const defaultAuditLimit = 50

type roleChangeInput struct {
	Role string `json:"role" form:"role"`
}

type statusChangeInput struct {
	Status string `json:"status" form:"status"`
}

type apiKeyInput struct {
	Name      string     `json:"name" form:"name"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func parseIDParam(c *fiber.Ctx) (uint, bool) {
	raw := strings.TrimSpace(c.Params("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseStatusFilter accepts an empty value as "all statuses".
func parseStatusFilter(raw string) (models.VerificationStatus, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", true
	}
	return models.ParseVerificationStatus(raw)
}

func (handler *Handler) ListProfiles(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	status, ok := parseStatusFilter(c.Query("status"))
	if !ok {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_status")
	}
	profiles, err := handler.adminService.ListProfiles(actor, status)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"profiles": profiles})
}

func (handler *Handler) ChangeProfileRole(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	profileID, ok := parseIDParam(c)
	if !ok {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}
	input := roleChangeInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	profile, err := handler.adminService.ChangeRole(actor, profileID, input.Role)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "profile": profile})
}

func (handler *Handler) ApproveProfile(c *fiber.Ctx) error {
	return handler.changeVerification(c, handler.adminService.ApproveVerification)
}

func (handler *Handler) RevokeProfile(c *fiber.Ctx) error {
	return handler.changeVerification(c, handler.adminService.RevokeVerification)
}

func (handler *Handler) changeVerification(c *fiber.Ctx, apply func(services.Actor, uint) (models.Profile, error)) error {
	actor, _ := currentActor(c)
	profileID, ok := parseIDParam(c)
	if !ok {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}
	profile, err := apply(actor, profileID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "profile": profile})
}

func (handler *Handler) ListProfileDocuments(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	profileID, ok := parseIDParam(c)
	if !ok {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}
	profile, err := handler.adminService.Profile(actor, profileID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	documents, err := handler.documentService.ListForUser(profile.UserID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"documents": documents})
}

// DownloadDocument streams a verification document to the reviewing
// administrator.
func (handler *Handler) DownloadDocument(c *fiber.Ctx) error {
	documentID, ok := parseIDParam(c)
	if !ok {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}
	document, content, err := handler.documentService.Open(c.UserContext(), documentID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, documentContentType(document.StoragePath))
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{
		"filename": document.OriginalName,
	}))
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.SendStream(content, int(document.Size))
}

func documentContentType(storagePath string) string {
	switch strings.ToLower(filepath.Ext(storagePath)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return fiber.MIMEOctetStream
	}
}

func (handler *Handler) ListOrganizations(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	status, ok := parseStatusFilter(c.Query("status"))
	if !ok {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_status")
	}
	organizations, err := handler.adminService.ListOrganizations(actor, status)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"organizations": organizations})
}

func (handler *Handler) ChangeOrganizationStatus(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	organizationID, ok := parseIDParam(c)
	if !ok {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}
	input := statusChangeInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	organization, err := handler.adminService.SetOrganizationStatus(actor, organizationID, input.Status)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "organization": organization})
}

func (handler *Handler) ListAPIKeys(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	keys, err := handler.apiKeyService.List(actor)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"api_keys": keys})
}

// CreateAPIKey returns the plaintext key once; only its hash is stored.
func (handler *Handler) CreateAPIKey(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	input := apiKeyInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	issued, err := handler.apiKeyService.Create(actor, input.Name, input.ExpiresAt)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"api_key": issued.Key,
		"key":     issued.Plaintext,
	})
}

func (handler *Handler) RevokeAPIKey(c *fiber.Ctx) error {
	return handler.mutateAPIKey(c, handler.apiKeyService.Revoke)
}

func (handler *Handler) DeleteAPIKey(c *fiber.Ctx) error {
	return handler.mutateAPIKey(c, handler.apiKeyService.Delete)
}

func (handler *Handler) mutateAPIKey(c *fiber.Ctx, apply func(services.Actor, uint) error) error {
	actor, _ := currentActor(c)
	keyID, ok := parseIDParam(c)
	if !ok {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}
	if err := apply(actor, keyID); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) ListInvitations(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	invitations, err := handler.invitationService.List(actor)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"invitations": invitations})
}

func (handler *Handler) CreateInvitation(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	request := services.InvitationRequest{}
	if err := c.BodyParser(&request); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	result, err := handler.invitationService.Send(c.UserContext(), actor, request)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invitationPayload(result))
}

func (handler *Handler) AuditLog(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	limit := c.QueryInt("limit", defaultAuditLimit)
	entries, err := handler.adminService.AuditLog(actor, limit)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries})
}

func invitationPayload(result services.InvitationResult) fiber.Map {
	payload := fiber.Map{
		"success":    true,
		"invitation": result.Invitation,
		"mode":       result.Mode,
		"emailSent":  result.EmailSent,
	}
	if result.InviteLink != "" {
		payload["inviteLink"] = result.InviteLink
	}
	if result.RecoveryLink != "" {
		payload["recoveryLink"] = result.RecoveryLink
	}
	return payload
}
