package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/edjs-platform/edjs/internal/models"
)

var (
	ErrRedirectAborted     = errors.New("login redirect aborted")
	ErrRedirectUnavailable = errors.New("login redirect unavailable")
)

type RedirectState string

const (
	RedirectCheckingConsent      RedirectState = "checking_consent"
	RedirectNeedsConsent         RedirectState = "needs_consent"
	RedirectCheckingVerification RedirectState = "checking_verification"
	RedirectPendingNotice        RedirectState = "pending_notice"
	RedirectDispatch             RedirectState = "dispatch"
)

// RedirectOutcome is the terminal state of the flow. Target is set only for
// RedirectDispatch.
type RedirectOutcome struct {
	State     RedirectState `json:"state"`
	Dashboard Dashboard     `json:"dashboard,omitempty"`
	Target    string        `json:"target,omitempty"`
}

func (outcome RedirectOutcome) Navigates() bool {
	return outcome.State == RedirectDispatch && outcome.Target != ""
}

type RedirectProfileRepository interface {
	FindConsentByUserID(ctx context.Context, userID uint) (models.Profile, error)
	FindAccessByUserID(ctx context.Context, userID uint) (models.Profile, error)
}

type LoginRedirectService struct {
	profiles RedirectProfileRepository
}

func NewLoginRedirectService(profiles RedirectProfileRepository) *LoginRedirectService {
	return &LoginRedirectService{profiles: profiles}
}

// Resolve runs the post-authentication flow for userID. The consent read
// always completes before the role and verification read starts.
func (service *LoginRedirectService) Resolve(ctx context.Context, userID uint) (RedirectOutcome, error) {
	if err := ctx.Err(); err != nil {
		return RedirectOutcome{}, ErrRedirectAborted
	}

	consent, err := service.profiles.FindConsentByUserID(ctx, userID)
	if err != nil {
		return RedirectOutcome{}, redirectFetchError(ctx, "load consent", err)
	}
	if !consent.HasAcceptedConsents() {
		return RedirectOutcome{State: RedirectNeedsConsent}, nil
	}

	if err := ctx.Err(); err != nil {
		return RedirectOutcome{}, ErrRedirectAborted
	}

	access, err := service.profiles.FindAccessByUserID(ctx, userID)
	if err != nil {
		return RedirectOutcome{}, redirectFetchError(ctx, "load access", err)
	}
	if err := ctx.Err(); err != nil {
		return RedirectOutcome{}, ErrRedirectAborted
	}

	return ResolveAccessOutcome(access), nil
}

// ResolveAccessOutcome is the verification step of the flow for a profile
// whose consents are already known to be accepted.
func ResolveAccessOutcome(profile models.Profile) RedirectOutcome {
	if profile.VerificationStatus != models.VerificationApproved {
		return RedirectOutcome{State: RedirectPendingNotice}
	}

	dashboard := DashboardFor(profile.Role)
	return RedirectOutcome{
		State:     RedirectDispatch,
		Dashboard: dashboard,
		Target:    DashboardPath(dashboard),
	}
}

func redirectFetchError(ctx context.Context, step string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return ErrRedirectAborted
	}
	return fmt.Errorf("%w: %s: %v", ErrRedirectUnavailable, step, err)
}
