package models

import "time"

type WaiterCall struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TableID   uint      `gorm:"not null;index" json:"table_id"`
	SessionID string    `gorm:"type:varchar(36);not null;index" json:"session_id"`
	Reason    string    `gorm:"type:varchar(255)" json:"reason"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
