package models

import "time"

type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPrefix  string     `gorm:"not null" json:"key_prefix"`
	KeyHash    string     `gorm:"uniqueIndex;not null" json:"-"`
	CreatedBy  uint       `gorm:"not null" json:"created_by"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (key APIKey) IsUsableAt(now time.Time) bool {
	if !key.IsActive {
		return false
	}
	return key.ExpiresAt == nil || now.Before(*key.ExpiresAt)
}
