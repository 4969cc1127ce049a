package services

import (
	"sort"
	"strings"

	"github.com/edjs-platform/edjs/internal/models"
)

type RouteRule struct {
	Path        string
	Public      bool
	Requirement Requirement
}

var publicRoutes = []string{"/", "/auth", "/auth/reset", "/privacy", "/terms", "/unauthorized", "/admin/setup"}

var protectedRoutes = map[string]Requirement{
	"/profile":                  AnyAuthenticated(),
	"/admin":                    RequireAdmin(),
	"/admin/spectacles":         RequireAdmin(),
	"/admin/sessions":           RequireAdmin(),
	"/admin/api-keys":           RequireAdmin(),
	"/admin/bookings":           RequireAdmin(),
	"/admin/users":              RequireAdmin(),
	"/admin/organizations":      RequireAdmin(),
	"/teacher":                  AllowRoles(models.RoleTeacherPrivate, models.RoleTeacherPublic),
	"/teacher/new-booking":      RequireRole(models.RoleTeacherPrivate),
	"/teacher/public-booking":   RequireRole(models.RoleTeacherPublic),
	"/association":              RequireRole(models.RoleAssociation),
	"/association/new-booking":  RequireRole(models.RoleAssociation),
	"/partner":                  RequireRole(models.RolePartner),
	"/partner/allocate-tickets": RequireRole(models.RolePartner),
	"/b2c":                      RequireRole(models.RoleB2CUser),
	"/b2c/booking":              RequireRole(models.RoleB2CUser),
}

func normalizeRoutePath(raw string) string {
	path := strings.TrimSpace(raw)
	if index := strings.IndexAny(path, "?#"); index >= 0 {
		path = path[:index]
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// LookupRoute resolves the declared rule for an application path.
func LookupRoute(rawPath string) (RouteRule, bool) {
	path := normalizeRoutePath(rawPath)
	for _, public := range publicRoutes {
		if public == path {
			return RouteRule{Path: path, Public: true}, true
		}
	}
	if requirement, ok := protectedRoutes[path]; ok {
		return RouteRule{Path: path, Requirement: requirement}, true
	}
	return RouteRule{}, false
}

func ProtectedRoutes() []RouteRule {
	rules := make([]RouteRule, 0, len(protectedRoutes))
	for path, requirement := range protectedRoutes {
		rules = append(rules, RouteRule{Path: path, Requirement: requirement})
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Path < rules[j].Path
	})
	return rules
}

func PublicRoutes() []string {
	routes := make([]string, len(publicRoutes))
	copy(routes, publicRoutes)
	return routes
}
