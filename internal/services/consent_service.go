package services

import (
	"context"
	"errors"
)

var ErrConsentRequired = errors.New("both consents required")

type ConsentRepository interface {
	UpdateConsent(userID uint, privacyAccepted bool, termsAccepted bool) error
}

type ConsentService struct {
	profiles  ConsentRepository
	redirects *LoginRedirectService
}

func NewConsentService(profiles ConsentRepository, redirects *LoginRedirectService) *ConsentService {
	return &ConsentService{profiles: profiles, redirects: redirects}
}

// Accept records both consents and resumes the post-login flow at the
// verification check.
func (service *ConsentService) Accept(ctx context.Context, userID uint, privacyAccepted bool, termsAccepted bool) (RedirectOutcome, error) {
	if !privacyAccepted || !termsAccepted {
		return RedirectOutcome{}, ErrConsentRequired
	}
	if err := service.profiles.UpdateConsent(userID, true, true); err != nil {
		return RedirectOutcome{}, err
	}
	return service.redirects.Resolve(ctx, userID)
}
