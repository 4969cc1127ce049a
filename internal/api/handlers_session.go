package api

import (
	"errors"

	"github.com/edjs-platform/edjs/internal/models"
	"github.com/edjs-platform/edjs/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type navigationEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

func (handler *Handler) Me(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	profile, err := handler.repositories.Profiles.FindByUserID(c.UserContext(), user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return handler.respondServiceError(c, err)
	}

	response := fiber.Map{
		"user": fiber.Map{
			"id":              user.ID,
			"email":           user.Email,
			"email_confirmed": user.EmailConfirmed,
		},
		"profile":   nil,
		"dashboard": services.DashboardUnauthorized,
	}
	if err == nil {
		dashboard := services.DashboardFor(profile.Role)
		response["profile"] = profile
		response["dashboard"] = dashboard
		response["dashboard_label"] = handler.i18n.Translate(currentLanguage(c), "dashboard."+string(dashboard))
	}
	return c.JSON(response)
}

func (handler *Handler) Navigation(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	profile, err := handler.accessProfile(c, user)
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	role := models.Role("")
	if profile != nil {
		role = profile.Role
	}
	language := currentLanguage(c)
	items := services.NavigationFor(role)
	entries := make([]navigationEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, navigationEntry{
			Key:   item.Key,
			Label: handler.i18n.Translate(language, item.Key),
			Path:  item.Path,
		})
	}
	return c.JSON(fiber.Map{"items": entries})
}

// Access evaluates the route guard for ?path= on behalf of the client router.
func (handler *Handler) Access(c *fiber.Ctx) error {
	rule, ok := services.LookupRoute(c.Query("path"))
	if !ok {
		return handler.apiError(c, fiber.StatusNotFound, "not_found")
	}

	decision, err := handler.evaluateRoute(c, rule)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"path":     rule.Path,
		"decision": decision,
		"redirect": decision.RedirectPath(),
	})
}

func (handler *Handler) evaluateRoute(c *fiber.Ctx, rule services.RouteRule) (services.AccessDecision, error) {
	if rule.Public {
		return services.AccessAllow, nil
	}

	user, err := handler.authenticateRequest(c)
	if err != nil {
		return services.EvaluateAccess(services.ProfileLookup{}, rule.Requirement), nil
	}
	profile, err := handler.accessProfile(c, user)
	if err != nil {
		return "", err
	}
	c.Locals(contextUserKey, user)
	return services.EvaluateAccess(services.ProfileLookup{Authenticated: true, Profile: profile}, rule.Requirement), nil
}
