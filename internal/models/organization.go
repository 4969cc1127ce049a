package models

import "time"

type OrganizationType string

const (
	OrganizationPrivateSchool OrganizationType = "private_school"
	OrganizationPublicSchool  OrganizationType = "public_school"
	OrganizationAssociation   OrganizationType = "association"
	OrganizationPartner       OrganizationType = "partner"
)

type Organization struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	Name               string             `gorm:"not null" json:"name"`
	Type               OrganizationType   `gorm:"not null" json:"type"`
	ICENumber          string             `gorm:"column:ice_number" json:"ice_number,omitempty"`
	Address            string             `json:"address,omitempty"`
	City               string             `json:"city,omitempty"`
	ContactPerson      string             `json:"contact_person,omitempty"`
	ContactEmail       string             `json:"contact_email,omitempty"`
	ContactPhone       string             `json:"contact_phone,omitempty"`
	Domain             string             `json:"domain,omitempty"`
	VerificationStatus VerificationStatus `gorm:"not null;default:pending" json:"verification_status"`
	MaxFreeTickets     int                `gorm:"not null;default:0" json:"max_free_tickets"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// SchoolTypeForRole maps a teacher role to the school type it registers under.
func SchoolTypeForRole(role Role) OrganizationType {
	if role == RoleTeacherPrivate {
		return OrganizationPrivateSchool
	}
	return OrganizationPublicSchool
}
