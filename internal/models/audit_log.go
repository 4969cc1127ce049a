package models

import "time"

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Action    string    `gorm:"not null" json:"action"`
	TableName string    `gorm:"column:table_name;not null" json:"table_name"`
	RecordID  string    `json:"record_id,omitempty"`
	NewValues string    `json:"new_values,omitempty"`
	IPAddress string    `gorm:"column:ip_address" json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
