package services

import "github.com/edjs-platform/edjs/internal/models"

type Dashboard string

const (
	DashboardAdmin        Dashboard = "admin"
	DashboardTeacher      Dashboard = "teacher"
	DashboardAssociation  Dashboard = "association"
	DashboardPartner      Dashboard = "partner"
	DashboardB2C          Dashboard = "b2c"
	DashboardUnauthorized Dashboard = "unauthorized"
)

func DashboardFor(role models.Role) Dashboard {
	switch role {
	case models.RoleAdmin, models.RoleAdminFull, models.RoleSuperAdmin:
		return DashboardAdmin
	case models.RoleTeacherPrivate, models.RoleTeacherPublic:
		return DashboardTeacher
	case models.RoleAssociation:
		return DashboardAssociation
	case models.RolePartner:
		return DashboardPartner
	case models.RoleB2CUser:
		return DashboardB2C
	default:
		return DashboardUnauthorized
	}
}

func DashboardPath(dashboard Dashboard) string {
	switch dashboard {
	case DashboardAdmin:
		return "/admin"
	case DashboardTeacher:
		return "/teacher"
	case DashboardAssociation:
		return "/association"
	case DashboardPartner:
		return "/partner"
	case DashboardB2C:
		return "/b2c"
	default:
		return "/unauthorized"
	}
}
