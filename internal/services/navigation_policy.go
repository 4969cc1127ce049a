package services

import "github.com/edjs-platform/edjs/internal/models"

// NavigationItem is a sidebar entry. Key is a localization message key.
type NavigationItem struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

func NavigationFor(role models.Role) []NavigationItem {
	items := []NavigationItem{
		{Key: "nav.dashboard", Path: DashboardPath(DashboardFor(role))},
		{Key: "nav.profile", Path: "/profile"},
	}

	switch DashboardFor(role) {
	case DashboardAdmin:
		items = append(items,
			NavigationItem{Key: "nav.shows", Path: "/admin/spectacles"},
			NavigationItem{Key: "nav.sessions", Path: "/admin/sessions"},
			NavigationItem{Key: "nav.bookings", Path: "/admin/bookings"},
			NavigationItem{Key: "nav.users", Path: "/admin/users"},
			NavigationItem{Key: "nav.organizations", Path: "/admin/organizations"},
			NavigationItem{Key: "nav.api_keys", Path: "/admin/api-keys"},
		)
	case DashboardTeacher:
		bookingPath := "/teacher/public-booking"
		if role == models.RoleTeacherPrivate {
			bookingPath = "/teacher/new-booking"
		}
		items = append(items, NavigationItem{Key: "nav.book", Path: bookingPath})
		if role == models.RoleTeacherPrivate {
			items = append(items, NavigationItem{Key: "nav.quotes", Path: "/teacher/quotes"})
		}
	case DashboardAssociation:
		items = append(items, NavigationItem{Key: "nav.book", Path: "/association/new-booking"})
	case DashboardPartner:
		items = append(items, NavigationItem{Key: "nav.allocate_tickets", Path: "/partner/allocate-tickets"})
	case DashboardB2C:
		items = append(items, NavigationItem{Key: "nav.book", Path: "/b2c/booking"})
	}
	return items
}
