package models

import "time"

const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
)

type AdminInvitation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Email           string    `gorm:"not null;index" json:"email"`
	Role            Role      `gorm:"not null" json:"role"`
	InvitedBy       uint      `gorm:"not null" json:"invited_by"`
	InvitedByName   string    `json:"invited_by_name,omitempty"`
	InvitationToken string    `gorm:"uniqueIndex;not null" json:"invitation_token"`
	Status          string    `gorm:"not null;default:pending" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}
