package models

import "time"

// Order is a batch of items placed atomically by one guest session.
type Order struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	SessionID  string      `gorm:"type:varchar(36);not null;index" json:"session_id"`
	TableID    uint        `gorm:"not null;index" json:"table_id"`
	PartyID    *uint       `gorm:"index" json:"party_id,omitempty"`
	ItemsTotal int64       `gorm:"not null;default:0" json:"items_total"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
	CreatedAt  time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"not null" json:"updated_at"`
}
