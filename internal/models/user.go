package models

import "time"

// User is the identity record: credentials and e-mail confirmation.
type User struct {
	ID                 uint      `gorm:"primaryKey"`
	Email              string    `gorm:"uniqueIndex;not null"`
	PasswordHash       string    `gorm:"not null"`
	EmailConfirmed     bool      `gorm:"not null;default:false"`
	MustChangePassword bool      `gorm:"not null;default:false"`
	CreatedAt          time.Time `gorm:"not null"`
}
