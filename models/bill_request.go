package models

import "time"

type BillMode string

const (
	BillModeMy         BillMode = "MY"
	BillModeSelected   BillMode = "SELECTED"
	BillModeWholeTable BillMode = "WHOLE_TABLE"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentTerminal PaymentMethod = "TERMINAL"
)

type BillStatus string

const (
	BillCreated       BillStatus = "CREATED"
	BillPaidConfirmed BillStatus = "PAID_CONFIRMED"
	BillCancelled     BillStatus = "CANCELLED"
	BillClosed        BillStatus = "CLOSED"
	BillExpired       BillStatus = "EXPIRED"
)


// BillRequest is one attempt to pay a reserved set of order items.
type BillRequest struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	Reference     string            `gorm:"type:varchar(36);uniqueIndex;not null" json:"reference"`
	TableID       uint              `gorm:"not null;index" json:"table_id"`
	SessionID     string            `gorm:"type:varchar(36);not null;index" json:"session_id"`
	PartyID       *uint             `gorm:"index" json:"party_id,omitempty"`
	Mode          BillMode          `gorm:"type:varchar(20);not null" json:"mode"`
	PaymentMethod PaymentMethod     `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status        BillStatus        `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal      int64             `gorm:"not null" json:"subtotal"`
	TipPercent    int               `gorm:"not null;default:0" json:"tip_percent"`
	TipAmount     int64             `gorm:"not null;default:0" json:"tip_amount"`
	Total         int64             `gorm:"not null" json:"total"`
	ConfirmedAt   *time.Time        `json:"confirmed_at,omitempty"`
	ConfirmedBy   *uint             `json:"confirmed_by,omitempty"`
	Items         []BillRequestItem `gorm:"foreignKey:BillRequestID" json:"items"`
	CreatedAt     time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null" json:"updated_at"`
}

// BillRequestItem pins an order item and its line total at reservation time.
type BillRequestItem struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BillRequestID uint      `gorm:"not null;index" json:"bill_request_id"`
	OrderItemID   uint      `gorm:"not null;index" json:"order_item_id"`
	LineTotal     int64     `gorm:"not null" json:"line_total"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}
