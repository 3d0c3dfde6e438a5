package models

import (
	"time"

	"gorm.io/datatypes"
)

// OrderItem snapshots name and price at order time. BillRequestID is the
// reservation marker; it is only written by bill settlement.
type OrderItem struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	OrderID uint  `gorm:"not null;index" json:"order_id"`
	Order   Order `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuID  uint  `gorm:"not null" json:"menu_id"`

	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	BasePrice      int64          `gorm:"not null" json:"base_price"`
	ModifiersTotal int64          `gorm:"not null;default:0" json:"modifiers_total"`
	UnitPrice      int64          `gorm:"not null" json:"unit_price"`
	Quantity       int            `gorm:"not null" json:"quantity"`
	Comment        string         `gorm:"type:text" json:"comment"`
	Modifiers      datatypes.JSON `json:"modifiers"`

	BillRequestID *uint      `gorm:"index" json:"bill_request_id"`
	IsClosed      bool       `gorm:"not null;default:false" json:"is_closed"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (i OrderItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Payable reports whether the item is neither closed nor reserved.
func (i OrderItem) Payable() bool {
	return !i.IsClosed && i.BillRequestID == nil
}
