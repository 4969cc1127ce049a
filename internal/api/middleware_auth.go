package api

import (
	"errors"
	"strings"

	"github.com/edjs-platform/edjs/internal/models"
	"github.com/edjs-platform/edjs/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var errMissingSession = errors.New("missing session")

// sessionToken returns the raw JWT from a Bearer header or the sealed cookie.
func (handler *Handler) sessionToken(c *fiber.Ctx) (string, error) {
	if header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", errMissingSession
		}
		return strings.TrimSpace(token), nil
	}

	rawCookie := strings.TrimSpace(c.Cookies(authCookieName))
	if rawCookie == "" {
		return "", errMissingSession
	}
	token, err := handler.cookies.open(sessionCookiePurpose, rawCookie)
	if err != nil {
		return "", err
	}
	return string(token), nil
}

func (handler *Handler) authenticateRequest(c *fiber.Ctx) (*models.User, error) {
	token, err := handler.sessionToken(c)
	if err != nil {
		return nil, err
	}
	user, err := handler.authService.ResolveSession(token)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// accessProfile loads the role and verification status for user. A missing
// profile is reported as (nil, nil).
func (handler *Handler) accessProfile(c *fiber.Ctx, user *models.User) (*models.Profile, error) {
	profile, err := handler.repositories.Profiles.FindAccessByUserID(c.UserContext(), user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func actorFor(c *fiber.Ctx, user *models.User, profile *models.Profile) services.Actor {
	actor := services.Actor{
		UserID:    user.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	if profile != nil {
		actor.Role = profile.Role
	}
	return actor
}

// AuthRequired guards JSON endpoints with a session.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	user, err := handler.authenticateRequest(c)
	if err != nil {
		return handler.apiError(c, fiber.StatusUnauthorized, "unauthenticated")
	}
	c.Locals(contextUserKey, user)
	return c.Next()
}

// AdminRequired must run after AuthRequired. It resolves the caller's
// profile and admits the administrator family only.
func (handler *Handler) AdminRequired(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return handler.apiError(c, fiber.StatusUnauthorized, "unauthenticated")
	}
	profile, err := handler.accessProfile(c, user)
	if err != nil {
		handler.logger.Error("load admin profile failed", "user_id", user.ID, "error", err)
		return handler.apiError(c, fiber.StatusServiceUnavailable, "redirect_unavailable")
	}
	if !services.IsAuthorized(profile, services.RequireAdmin()) {
		return handler.apiError(c, fiber.StatusForbidden, "admin_required")
	}
	c.Locals(contextActorKey, actorFor(c, user, profile))
	return c.Next()
}

// APIKeyRequired authenticates machine clients through X-API-Key.
func (handler *Handler) APIKeyRequired(c *fiber.Ctx) error {
	key, err := handler.apiKeyService.Authenticate(c.Get("X-API-Key"))
	if err != nil {
		if errors.Is(err, services.ErrAPIKeyInvalid) {
			return handler.apiError(c, fiber.StatusUnauthorized, "api_key_invalid")
		}
		handler.logger.Error("api key lookup failed", "error", err)
		return handler.apiError(c, fiber.StatusInternalServerError, "internal_error")
	}
	c.Locals(contextAPIKeyKey, &key)
	return c.Next()
}
