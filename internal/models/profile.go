package models

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
)

func ParseVerificationStatus(raw string) (VerificationStatus, bool) {
	switch VerificationStatus(raw) {
	case VerificationPending:
		return VerificationPending, true
	case VerificationApproved:
		return VerificationApproved, true
	default:
		return "", false
	}
}

type Profile struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	UserID             uint               `gorm:"uniqueIndex;not null" json:"user_id"`
	Email              string             `gorm:"not null" json:"email"`
	Role               Role               `gorm:"not null;default:b2c_user" json:"role"`
	VerificationStatus VerificationStatus `gorm:"not null;default:pending" json:"verification_status"`
	PrivacyAccepted    bool               `gorm:"not null;default:false" json:"privacy_accepted"`
	TermsAccepted      bool               `gorm:"not null;default:false" json:"terms_accepted"`
	FullName           string             `json:"full_name"`
	Phone              string             `json:"phone"`
	WhatsApp           string             `gorm:"column:whatsapp" json:"whatsapp"`
	ProfessionalEmail  string             `json:"professional_email"`
	ContactPerson      string             `json:"contact_person,omitempty"`
	OrganizationID     *uint              `json:"organization_id,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func (profile *Profile) HasAcceptedConsents() bool {
	return profile != nil && profile.PrivacyAccepted && profile.TermsAccepted
}

// DefaultVerificationStatus is the status a freshly registered profile starts with.
// Consumers and private-school teachers are approved immediately; everything
// that needs document review waits.
func DefaultVerificationStatus(role Role) VerificationStatus {
	switch role {
	case RoleB2CUser, RoleTeacherPrivate:
		return VerificationApproved
	default:
		return VerificationPending
	}
}
