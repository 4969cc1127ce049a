package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/edjs-platform/edjs/internal/mail"
	"github.com/edjs-platform/edjs/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const InvitationTTL = 7 * 24 * time.Hour

type InvitationMode string

const (
	InvitationModeInvite           InvitationMode = "invite"
	InvitationModeResend           InvitationMode = "resend"
	InvitationModeRecoveryFallback InvitationMode = "recovery_fallback"
)

var (
	ErrInvitationForbidden     = errors.New("insufficient permissions")
	ErrInvitationInvalidEmail  = errors.New("invitation email invalid")
	ErrInvitationInvalidRole   = errors.New("invitation role invalid")
	ErrInvitationNotFound      = errors.New("invitation not found")
	ErrInvitationNotPending    = errors.New("invitation already accepted")
	ErrInvitationExpired       = errors.New("invitation expired")
	ErrInvitationAccountExists = errors.New("invitation account exists")
)

type InvitationRepository interface {
	Create(invitation *models.AdminInvitation) error
	FindByToken(token string) (models.AdminInvitation, error)
	List() ([]models.AdminInvitation, error)
	MarkAccepted(invitationID uint) error
}

type InvitationUserRepository interface {
	FindByNormalizedEmail(email string) (models.User, error)
}

type InvitationRequest struct {
	Email           string `json:"email"`
	Role            string `json:"role"`
	InvitedByName   string `json:"invitedByName"`
	InvitationToken string `json:"invitationToken,omitempty"`
}

type InvitationResult struct {
	Invitation   *models.AdminInvitation
	Mode         InvitationMode
	InviteLink   string
	RecoveryLink string
	EmailSent    bool
}

type InvitationService struct {
	invitations InvitationRepository
	users       InvitationUserRepository
	setup       *SetupService
	auth        *AuthService
	mailer      mail.Mailer
	publicURL   string
	logger      *slog.Logger
	now         func() time.Time
	newToken    func() string
}

func NewInvitationService(
	invitations InvitationRepository,
	users InvitationUserRepository,
	setup *SetupService,
	auth *AuthService,
	mailer mail.Mailer,
	publicURL string,
	logger *slog.Logger,
) *InvitationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvitationService{
		invitations: invitations,
		users:       users,
		setup:       setup,
		auth:        auth,
		mailer:      mailer,
		publicURL:   strings.TrimRight(strings.TrimSpace(publicURL), "/"),
		logger:      logger,
		now:         time.Now,
		newToken:    uuid.NewString,
	}
}

func (service *InvitationService) MailerDiagnostics() mail.Diagnostics {
	if service.mailer == nil {
		return mail.Diagnostics{Using: "none"}
	}
	return service.mailer.Diagnostics()
}

func (service *InvitationService) List(actor Actor) ([]models.AdminInvitation, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	return service.invitations.List()
}

// Send creates and mails an invitation, or re-mails an existing one when
// request.InvitationToken is set. An invitee who already has an account gets
// a password recovery link instead.
func (service *InvitationService) Send(ctx context.Context, actor Actor, request InvitationRequest) (InvitationResult, error) {
	if !actor.Role.CanInviteAdmins() {
		return InvitationResult{}, ErrInvitationForbidden
	}
	email := NormalizeAuthEmail(request.Email)
	if email == "" {
		return InvitationResult{}, ErrInvitationInvalidEmail
	}
	role, ok := models.ParseRole(request.Role)
	if !ok || !role.IsAdmin() {
		return InvitationResult{}, ErrInvitationInvalidRole
	}

	invitation, mode, err := service.prepareInvitation(actor, email, role, request)
	if err != nil {
		return InvitationResult{}, err
	}
	result := InvitationResult{Invitation: invitation, Mode: mode}

	existing, err := service.users.FindByNormalizedEmail(email)
	switch {
	case err == nil:
		return service.sendRecoveryFallback(ctx, result, existing)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return InvitationResult{}, err
	}

	result.InviteLink = service.publicURL + "/admin/setup?invitation=" + url.QueryEscape(invitation.InvitationToken)
	message, err := mail.InvitationMessage(email, mail.InvitationData{
		InvitedByName: firstNonEmpty(request.InvitedByName, invitation.InvitedByName, "EDJS"),
		Role:          string(role),
		Link:          result.InviteLink,
		ExpiresAt:     invitation.ExpiresAt.Format("02/01/2006"),
	})
	if err != nil {
		return InvitationResult{}, err
	}
	result.EmailSent = service.deliver(ctx, message)

	service.logger.InfoContext(ctx, "admin invitation sent",
		"invitation_id", invitation.ID,
		"role", role,
		"mode", mode,
		"email_sent", result.EmailSent,
	)
	return result, nil
}

func (service *InvitationService) prepareInvitation(actor Actor, email string, role models.Role, request InvitationRequest) (*models.AdminInvitation, InvitationMode, error) {
	token := strings.TrimSpace(request.InvitationToken)
	if token != "" {
		invitation, err := service.invitations.FindByToken(token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", ErrInvitationNotFound
			}
			return nil, "", err
		}
		if invitation.Status != models.InvitationStatusPending {
			return nil, "", ErrInvitationNotPending
		}
		if NormalizeAuthEmail(invitation.Email) != email {
			return nil, "", ErrInvitationNotFound
		}
		return &invitation, InvitationModeResend, nil
	}

	now := service.now().UTC()
	invitation := &models.AdminInvitation{
		Email:           email,
		Role:            role,
		InvitedBy:       actor.UserID,
		InvitedByName:   strings.TrimSpace(request.InvitedByName),
		InvitationToken: service.newToken(),
		Status:          models.InvitationStatusPending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(InvitationTTL),
	}
	if err := service.invitations.Create(invitation); err != nil {
		return nil, "", err
	}
	return invitation, InvitationModeInvite, nil
}

func (service *InvitationService) sendRecoveryFallback(ctx context.Context, result InvitationResult, user models.User) (InvitationResult, error) {
	token, err := service.auth.BuildRecoveryToken(user)
	if err != nil {
		return InvitationResult{}, err
	}

	result.Mode = InvitationModeRecoveryFallback
	result.RecoveryLink = service.publicURL + "/auth/reset?token=" + url.QueryEscape(token)
	message, err := mail.RecoveryMessage(user.Email, mail.RecoveryData{Link: result.RecoveryLink})
	if err != nil {
		return InvitationResult{}, err
	}
	result.EmailSent = service.deliver(ctx, message)

	service.logger.InfoContext(ctx, "admin invitation fell back to recovery", "user_id", user.ID, "email_sent", result.EmailSent)
	return result, nil
}

func (service *InvitationService) deliver(ctx context.Context, message mail.Message) bool {
	if service.mailer == nil {
		return false
	}
	if err := service.mailer.Send(ctx, message); err != nil {
		service.logger.WarnContext(ctx, "invitation mail not sent", "error", err)
		return false
	}
	return true
}

type AcceptInvitationInput struct {
	Token    string `json:"token"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// Accept turns a pending, unexpired invitation into an administrator account
// with the invited role.
func (service *InvitationService) Accept(input AcceptInvitationInput) (models.User, models.AdminInvitation, error) {
	invitation, err := service.invitations.FindByToken(strings.TrimSpace(input.Token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, models.AdminInvitation{}, ErrInvitationNotFound
		}
		return models.User{}, models.AdminInvitation{}, err
	}
	if invitation.Status != models.InvitationStatusPending {
		return models.User{}, models.AdminInvitation{}, ErrInvitationNotPending
	}
	if !service.now().Before(invitation.ExpiresAt) {
		return models.User{}, models.AdminInvitation{}, ErrInvitationExpired
	}
	if !invitation.Role.IsAdmin() {
		return models.User{}, models.AdminInvitation{}, ErrInvitationInvalidRole
	}

	if _, err := service.users.FindByNormalizedEmail(NormalizeAuthEmail(invitation.Email)); err == nil {
		return models.User{}, models.AdminInvitation{}, ErrInvitationAccountExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, models.AdminInvitation{}, err
	}

	user, err := service.setup.createAdministrator(AdministratorInput{
		Email:    invitation.Email,
		Password: input.Password,
		FullName: input.FullName,
	}, invitation.Role)
	if errors.Is(err, ErrSetupAccountExists) {
		return models.User{}, models.AdminInvitation{}, ErrInvitationAccountExists
	}
	if err != nil {
		return models.User{}, models.AdminInvitation{}, err
	}
	if err := service.invitations.MarkAccepted(invitation.ID); err != nil {
		return models.User{}, models.AdminInvitation{}, err
	}

	invitation.Status = models.InvitationStatusAccepted
	return user, invitation, nil
}
