package api

import (
	"time"

	"github.com/edjs-platform/edjs/internal/models"
	"github.com/edjs-platform/edjs/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	authCookieName     = "edjs_auth"
	languageCookieName = "edjs_lang"
	contextUserKey     = "current_user"
	contextActorKey    = "current_actor"
	contextAPIKeyKey   = "current_api_key"
	contextLanguageKey = "current_language"
)

func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(contextUserKey).(*models.User)
	return user, ok
}

func currentActor(c *fiber.Ctx) (services.Actor, bool) {
	actor, ok := c.Locals(contextActorKey).(services.Actor)
	return actor, ok
}

func currentLanguage(c *fiber.Ctx) string {
	language, _ := c.Locals(contextLanguageKey).(string)
	return language
}

func (handler *Handler) LanguageMiddleware(c *fiber.Ctx) error {
	cookieLanguage := c.Cookies(languageCookieName)
	language := handler.i18n.DetectFromAcceptLanguage(c.Get("Accept-Language"))
	if cookieLanguage != "" {
		language = handler.i18n.NormalizeLanguage(cookieLanguage)
	}

	if cookieLanguage != language {
		handler.setLanguageCookie(c, language)
	}

	c.Locals(contextLanguageKey, language)
	return c.Next()
}

func (handler *Handler) SetLanguage(c *fiber.Ctx) error {
	language := handler.i18n.NormalizeLanguage(c.Params("lang"))
	handler.setLanguageCookie(c, language)
	return c.Redirect(sanitizeRedirectPath(c.Query("next"), "/"), fiber.StatusSeeOther)
}

func (handler *Handler) setLanguageCookie(c *fiber.Ctx, language string) {
	c.Cookie(&fiber.Cookie{
		Name:     languageCookieName,
		Value:    handler.i18n.NormalizeLanguage(language),
		Path:     "/",
		HTTPOnly: false,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  handler.now().AddDate(1, 0, 0),
	})
}

func (handler *Handler) setAuthCookie(c *fiber.Ctx, token string, ttl time.Duration) error {
	sealed, err := handler.cookies.seal(sessionCookiePurpose, []byte(token))
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    sealed,
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  handler.now().Add(ttl),
	})
	return nil
}

func (handler *Handler) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  handler.now().Add(-1 * time.Hour),
	})
}
