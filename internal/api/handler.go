package api

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/edjs-platform/edjs/internal/db"
	"github.com/edjs-platform/edjs/internal/i18n"
	"github.com/edjs-platform/edjs/internal/mail"
	"github.com/edjs-platform/edjs/internal/services"
	"github.com/edjs-platform/edjs/internal/storage"
	"gorm.io/gorm"
)

// Options carries the runtime collaborators of the HTTP layer.
type Options struct {
	SecretKey    string
	CookieSecure bool
	PublicURL    string
	SetupToken   string
	Version      string
	Mailer       mail.Mailer
	Blobs        storage.BlobStore
	I18n         *i18n.Manager
	Logger       *slog.Logger
}

type Handler struct {
	repositories *db.Repositories
	secretKey    []byte
	cookieSecure bool
	version      string
	i18n         *i18n.Manager
	logger       *slog.Logger
	cookies      *secureCookieCodec
	metrics      *metrics
	now          func() time.Time

	authService         *services.AuthService
	redirectService     *services.LoginRedirectService
	consentService      *services.ConsentService
	registrationService *services.RegistrationService
	auditService        *services.AuditService
	adminService        *services.AdminService
	setupService        *services.SetupService
	invitationService   *services.InvitationService
	documentService     *services.DocumentService
	apiKeyService       *services.APIKeyService

	loginLimiter  *attemptLimiter
	uploadLimiter *ipRateLimiter
	setupLimiter  *ipRateLimiter
}

func NewHandler(database *gorm.DB, options Options) (*Handler, error) {
	if database == nil {
		return nil, errors.New("database is required")
	}
	if options.I18n == nil {
		return nil, errors.New("i18n manager is required")
	}
	if options.Blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Mailer == nil {
		options.Mailer = mail.NewLogMailer(options.Logger)
	}
	if strings.TrimSpace(options.Version) == "" {
		options.Version = "dev"
	}

	secretKey := []byte(options.SecretKey)
	cookies, err := newSecureCookieCodec(secretKey)
	if err != nil {
		return nil, err
	}

	handler := &Handler{
		secretKey:     secretKey,
		cookieSecure:  options.CookieSecure,
		version:       options.Version,
		i18n:          options.I18n,
		logger:        options.Logger,
		cookies:       cookies,
		metrics:       newMetrics(options.Version),
		now:           time.Now,
		loginLimiter:  newAttemptLimiter(loginAttemptsLimit, loginAttemptsWindow),
		uploadLimiter: newIPRateLimiter(uploadRatePerSecond, uploadRateBurst),
		setupLimiter:  newIPRateLimiter(setupRatePerSecond, setupRateBurst),
	}
	return handler.withDependencies(database, options), nil
}

func (handler *Handler) withDependencies(database *gorm.DB, options Options) *Handler {
	repos := db.NewRepositories(database)
	handler.repositories = repos

	handler.authService = services.NewAuthService(repos.Users, handler.secretKey)
	handler.redirectService = services.NewLoginRedirectService(repos.Profiles)
	handler.consentService = services.NewConsentService(repos.Profiles, handler.redirectService)
	handler.registrationService = services.NewRegistrationService(
		repos.Users,
		repos.Organizations,
		repos.Registrations,
		handler.authService,
		options.Mailer,
		options.PublicURL,
		options.Logger,
	)
	handler.auditService = services.NewAuditService(repos.AuditLogs, options.Logger)
	handler.adminService = services.NewAdminService(repos.Profiles, repos.Organizations, handler.auditService)
	handler.setupService = services.NewSetupService(repos.Users, options.SetupToken)
	handler.invitationService = services.NewInvitationService(
		repos.Invitations,
		repos.Users,
		handler.setupService,
		handler.authService,
		options.Mailer,
		options.PublicURL,
		options.Logger,
	)
	handler.documentService = services.NewDocumentService(repos.Documents, options.Blobs, options.Logger)
	handler.apiKeyService = services.NewAPIKeyService(repos.APIKeys, handler.auditService, options.Logger)
	return handler
}
