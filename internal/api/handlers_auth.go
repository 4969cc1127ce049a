package api

import (
	"errors"
	"math"
	"net/url"
	"strconv"

	"github.com/edjs-platform/edjs/internal/services"
	"github.com/gofiber/fiber/v2"
)

type loginInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type emailInput struct {
	Email string `json:"email" form:"email"`
}

type resetPasswordInput struct {
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}

type consentInput struct {
	PrivacyAccepted bool `json:"privacy_accepted" form:"privacy_accepted"`
	TermsAccepted   bool `json:"terms_accepted" form:"terms_accepted"`
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	input := loginInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	now := handler.now()
	limiterKey := loginLimiterKey(c, input.Email)
	if wait := handler.loginLimiter.retryAfter(limiterKey, now); wait > 0 {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		return handler.apiError(c, fiber.StatusTooManyRequests, "too_many_attempts")
	}

	user, err := handler.authService.SignIn(input.Email, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrAuthCredentialsInvalid) {
			handler.loginLimiter.recordFailure(limiterKey, now)
		}
		return handler.respondServiceError(c, err)
	}
	handler.loginLimiter.clear(limiterKey)

	// The session is only issued once the landing route is known.
	outcome, err := handler.redirectService.Resolve(c.UserContext(), user.ID)
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
	handler.observeRedirect(outcome)

	response := handler.redirectPayload(c, outcome)
	response["ok"] = true
	response["user_id"] = user.ID
	response["token"] = token
	return c.JSON(response)
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

// Redirect re-runs the post-login flow for the current session.
func (handler *Handler) Redirect(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	outcome, err := handler.redirectService.Resolve(c.UserContext(), user.ID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	handler.observeRedirect(outcome)
	return c.JSON(handler.redirectPayload(c, outcome))
}

func (handler *Handler) AcceptConsent(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	input := consentInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}
	outcome, err := handler.consentService.Accept(c.UserContext(), user.ID, input.PrivacyAccepted, input.TermsAccepted)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	handler.observeRedirect(outcome)
	return c.JSON(handler.redirectPayload(c, outcome))
}

func (handler *Handler) redirectPayload(c *fiber.Ctx, outcome services.RedirectOutcome) fiber.Map {
	payload := fiber.Map{"redirect": outcome}
	if outcome.State == services.RedirectPendingNotice {
		payload["notice"] = handler.i18n.Translate(currentLanguage(c), "access.pending_notice")
	}
	return payload
}

// ConfirmEmail is the landing point of the confirmation link. Browsers are
// sent back to the auth page; JSON clients get the outcome directly.
func (handler *Handler) ConfirmEmail(c *fiber.Ctx) error {
	_, err := handler.authService.ConfirmEmail(c.Query("token"))
	if acceptsJSON(c) {
		if err != nil {
			return handler.respondServiceError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "message": handler.i18n.Translate(currentLanguage(c), "auth.email_confirmed")})
	}
	if err != nil {
		_, code, _ := classifyError(err)
		return c.Redirect("/auth?error="+url.QueryEscape(code), fiber.StatusSeeOther)
	}
	return c.Redirect("/auth?confirmed=1", fiber.StatusSeeOther)
}

// ResendConfirmation answers the same way whether or not the address exists.
func (handler *Handler) ResendConfirmation(c *fiber.Ctx) error {
	input := emailInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}
	if err := handler.registrationService.ResendConfirmation(c.UserContext(), input.Email); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "message": handler.i18n.Translate(currentLanguage(c), "auth.confirmation_sent")})
}

func (handler *Handler) ResetPassword(c *fiber.Ctx) error {
	input := resetPasswordInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}
	if _, err := handler.authService.ResetPassword(input.Token, input.Password); err != nil {
		return handler.respondServiceError(c, err)
	}
	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"ok": true, "message": handler.i18n.Translate(currentLanguage(c), "auth.password_reset")})
}
