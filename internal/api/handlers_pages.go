package api

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/edjs-platform/edjs/internal/services"
	"github.com/gofiber/fiber/v2"
)

var pageShell = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>EDJS | École du Jeune Spectateur</title>
</head>
<body>
<div id="app" data-route="{{.Route}}" data-language="{{.Language}}" data-languages="{{.Languages}}"{{if .SetupRequired}} data-setup-required="true"{{end}}></div>
<script type="module" src="/assets/app.js"></script>
</body>
</html>
`))

type pageShellData struct {
	Route         string
	Language      string
	Languages     string
	SetupRequired bool
}

const setupPagePath = "/admin/setup"

func registerPageRoutes(app *fiber.App, handler *Handler) {
	for _, path := range services.PublicRoutes() {
		rule, _ := services.LookupRoute(path)
		app.Get(path, handler.guardPage(rule), handler.renderPage)
	}
	for _, rule := range services.ProtectedRoutes() {
		app.Get(rule.Path, handler.guardPage(rule), handler.renderPage)
	}
	app.Get("/dashboard", handler.Dashboard)
}

// guardPage applies the route rule server side: no session goes to /auth,
// a denied role goes to /unauthorized.
func (handler *Handler) guardPage(rule services.RouteRule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision, err := handler.evaluateRoute(c, rule)
		if err != nil {
			handler.logger.Error("route guard lookup failed", "path", rule.Path, "error", err)
			return c.Status(fiber.StatusServiceUnavailable).SendString(handler.localizedError(c, "redirect_unavailable"))
		}
		handler.observeAccess(decision)
		if decision != services.AccessAllow {
			return c.Redirect(decision.RedirectPath(), fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

func (handler *Handler) renderPage(c *fiber.Ctx) error {
	data := pageShellData{
		Route:     c.Route().Path,
		Language:  currentLanguage(c),
		Languages: strings.Join(handler.i18n.SupportedLanguages(), ","),
	}
	if data.Route == setupPagePath {
		required, err := handler.setupService.RequiresInitialSetup()
		if err != nil {
			handler.logger.Warn("setup state lookup failed", "error", err)
		}
		data.SetupRequired = required
	}

	var output bytes.Buffer
	if err := pageShell.Execute(&output, data); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("failed to render page")
	}
	c.Type("html", "utf-8")
	return c.Send(output.Bytes())
}

// Dashboard sends the session to the dashboard its role owns.
func (handler *Handler) Dashboard(c *fiber.Ctx) error {
	user, err := handler.authenticateRequest(c)
	if err != nil {
		return c.Redirect(services.AccessRedirectLogin.RedirectPath(), fiber.StatusSeeOther)
	}
	profile, err := handler.accessProfile(c, user)
	if err != nil {
		handler.logger.Error("dashboard lookup failed", "user_id", user.ID, "error", err)
		return c.Status(fiber.StatusServiceUnavailable).SendString(handler.localizedError(c, "redirect_unavailable"))
	}
	dashboard := services.DashboardUnauthorized
	if profile != nil {
		dashboard = services.DashboardFor(profile.Role)
	}
	return c.Redirect(services.DashboardPath(dashboard), fiber.StatusSeeOther)
}
