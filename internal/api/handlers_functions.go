package api

import (
	"strings"

	"github.com/edjs-platform/edjs/internal/services"
	"github.com/gofiber/fiber/v2"
)

const setupTokenHeader = "X-Admin-Setup-Token"

const functionsAllowHeaders = "authorization, x-client-info, apikey, content-type, x-admin-setup-token"

type createAdminInput struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FullName      string `json:"full_name"`
	FullNameAlias string `json:"fullName"`
}

// functionError writes the {error} body used under /functions/v1.
func (handler *Handler) functionError(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": handler.localizedError(c, code)})
}

func (handler *Handler) functionServiceError(c *fiber.Ctx, err error) error {
	status, code, known := classifyError(err)
	if !known {
		handler.logger.Error("function failed", "path", c.Path(), "error", err)
	}
	return handler.functionError(c, status, code)
}

// CreateAdmin bootstraps an administrator. The checks run in a fixed order:
// method, setup token, then body.
func (handler *Handler) CreateAdmin(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodOptions {
		return sendNoContent(c)
	}
	if c.Method() != fiber.MethodPost {
		return handler.functionError(c, fiber.StatusMethodNotAllowed, "method_not_allowed")
	}
	if err := handler.setupService.AuthorizeToken(c.Get(setupTokenHeader)); err != nil {
		return handler.functionServiceError(c, err)
	}

	input := createAdminInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.functionError(c, fiber.StatusBadRequest, "setup_fields_required")
	}
	fullName := input.FullName
	if strings.TrimSpace(fullName) == "" {
		fullName = input.FullNameAlias
	}

	user, err := handler.setupService.CreateAdministrator(services.AdministratorInput{
		Email:    input.Email,
		Password: input.Password,
		FullName: fullName,
	})
	if err != nil {
		return handler.functionServiceError(c, err)
	}
	handler.logger.Info("administrator created through setup function", "user_id", user.ID)
	return c.JSON(fiber.Map{"success": true, "user_id": user.ID})
}

// SendAdminInvitation answers GET (or ?health=1) with mailer diagnostics and
// POST with a new or resent invitation.
func (handler *Handler) SendAdminInvitation(c *fiber.Ctx) error {
	switch {
	case c.Method() == fiber.MethodOptions:
		return sendNoContent(c)
	case c.Method() == fiber.MethodGet || c.Query("health") == "1":
		return c.JSON(handler.invitationService.MailerDiagnostics())
	case c.Method() != fiber.MethodPost:
		return handler.functionError(c, fiber.StatusMethodNotAllowed, "method_not_allowed")
	}

	user, err := handler.authenticateRequest(c)
	if err != nil {
		return handler.functionError(c, fiber.StatusUnauthorized, "unauthenticated")
	}
	profile, err := handler.accessProfile(c, user)
	if err != nil {
		return handler.functionServiceError(c, err)
	}
	actor := actorFor(c, user, profile)
	if !actor.Role.CanInviteAdmins() {
		return handler.functionError(c, fiber.StatusForbidden, "invitation_forbidden")
	}

	request := services.InvitationRequest{}
	if err := c.BodyParser(&request); err != nil {
		return handler.functionError(c, fiber.StatusBadRequest, "invalid_request")
	}
	result, err := handler.invitationService.Send(c.UserContext(), actor, request)
	if err != nil {
		return handler.functionServiceError(c, err)
	}
	return c.JSON(invitationPayload(result))
}
