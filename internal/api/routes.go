package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/metrics", handler.Metrics())
	app.Get("/favicon.ico", sendNoContent)
	app.Get("/lang/:lang", handler.SetLanguage)

	registerPageRoutes(app, handler)
	registerAPIRoutes(app, handler)
	registerFunctionRoutes(app, handler)

	app.Use(handler.NotFound)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.AuthRequired, handler.Logout)
	auth.Get("/confirm", handler.ConfirmEmail)
	auth.Post("/confirm/resend", handler.ResendConfirmation)
	auth.Post("/reset-password", handler.ResetPassword)
	auth.Get("/redirect", handler.AuthRequired, handler.Redirect)
	auth.Post("/register", handler.Register)

	api.Post("/consent", handler.AuthRequired, handler.AcceptConsent)

	registration := api.Group("/registration")
	registration.Get("/steps", handler.RegistrationSteps)
	registration.Post("/validate", handler.ValidateRegistration)
	registration.Get("/schools", handler.RegistrationSchools)
	registration.Post("/documents", handler.rateLimited(handler.uploadLimiter), handler.UploadDocuments)

	api.Get("/me", handler.AuthRequired, handler.Me)
	api.Get("/navigation", handler.AuthRequired, handler.Navigation)
	api.Get("/access", handler.Access)

	api.Post("/invitations/accept", handler.AcceptInvitation)

	admin := api.Group("/admin", handler.AuthRequired, handler.AdminRequired)
	admin.Get("/profiles", handler.ListProfiles)
	admin.Patch("/profiles/:id/role", handler.ChangeProfileRole)
	admin.Post("/profiles/:id/approve", handler.ApproveProfile)
	admin.Post("/profiles/:id/revoke", handler.RevokeProfile)
	admin.Get("/profiles/:id/documents", handler.ListProfileDocuments)
	admin.Get("/documents/:id", handler.DownloadDocument)
	admin.Get("/organizations", handler.ListOrganizations)
	admin.Patch("/organizations/:id/status", handler.ChangeOrganizationStatus)
	admin.Get("/api-keys", handler.ListAPIKeys)
	admin.Post("/api-keys", handler.CreateAPIKey)
	admin.Post("/api-keys/:id/revoke", handler.RevokeAPIKey)
	admin.Delete("/api-keys/:id", handler.DeleteAPIKey)
	admin.Get("/invitations", handler.ListInvitations)
	admin.Post("/invitations", handler.CreateInvitation)
	admin.Get("/audit", handler.AuditLog)

	external := api.Group("/external/v1", handler.APIKeyRequired)
	external.Get("/whoami", handler.Whoami)
}

func registerFunctionRoutes(app *fiber.App, handler *Handler) {
	functions := app.Group("/functions/v1", cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: functionsAllowHeaders,
	}))
	functions.All("/create-admin", handler.rateLimited(handler.setupLimiter), handler.CreateAdmin)
	functions.All("/send-admin-invitation", handler.SendAdminInvitation)
}
