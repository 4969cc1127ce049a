package services

import "github.com/edjs-platform/edjs/internal/models"

// Requirement is the role constraint declared by a protected route. The zero
// value admits any authenticated profile.
type Requirement struct {
	roles []models.Role
}

func AnyAuthenticated() Requirement {
	return Requirement{}
}

func RequireRole(role models.Role) Requirement {
	return Requirement{roles: []models.Role{role}}
}

func AllowRoles(roles ...models.Role) Requirement {
	allowed := make([]models.Role, 0, len(roles))
	allowed = append(allowed, roles...)
	return Requirement{roles: allowed}
}

func RequireAdmin() Requirement {
	return AllowRoles(models.AdminRoles()...)
}

func (requirement Requirement) IsAnyAuthenticated() bool {
	return len(requirement.roles) == 0
}

func (requirement Requirement) Roles() []models.Role {
	roles := make([]models.Role, len(requirement.roles))
	copy(roles, requirement.roles)
	return roles
}

// IsAuthorized is the route-guard predicate. It only looks at the role: the
// verification and consent gates belong to the post-login redirect flow.
func IsAuthorized(profile *models.Profile, requirement Requirement) bool {
	if profile == nil {
		return false
	}
	if requirement.IsAnyAuthenticated() {
		return true
	}
	if !profile.Role.IsKnown() {
		return false
	}
	for _, role := range requirement.roles {
		if profile.Role == role {
			return true
		}
	}
	return false
}

type AccessDecision string

const (
	AccessAllow                AccessDecision = "allow"
	AccessLoading              AccessDecision = "loading"
	AccessRedirectLogin        AccessDecision = "redirect_login"
	AccessRedirectUnauthorized AccessDecision = "redirect_unauthorized"
)

// ProfileLookup is the guard's view of the current session.
type ProfileLookup struct {
	Authenticated bool
	Loading       bool
	Profile       *models.Profile
}

func EvaluateAccess(lookup ProfileLookup, requirement Requirement) AccessDecision {
	if lookup.Loading {
		return AccessLoading
	}
	if !lookup.Authenticated {
		return AccessRedirectLogin
	}
	if !IsAuthorized(lookup.Profile, requirement) {
		return AccessRedirectUnauthorized
	}
	return AccessAllow
}

func (decision AccessDecision) RedirectPath() string {
	switch decision {
	case AccessRedirectLogin:
		return "/auth"
	case AccessRedirectUnauthorized:
		return "/unauthorized"
	default:
		return ""
	}
}
