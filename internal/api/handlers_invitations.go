package api

import (
	"github.com/edjs-platform/edjs/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AcceptInvitation creates the invited administrator and opens a session.
func (handler *Handler) AcceptInvitation(c *fiber.Ctx) error {
	input := services.AcceptInvitationInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	user, invitation, err := handler.invitationService.Accept(input)
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	token, err := handler.authService.IssueSessionToken(user, services.DefaultSessionTTL)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	if err := handler.setAuthCookie(c, token, services.DefaultSessionTTL); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ok":       true,
		"user_id":  user.ID,
		"role":     invitation.Role,
		"redirect": services.DashboardPath(services.DashboardFor(invitation.Role)),
	})
}
