package models

import (
	"time"

	"gorm.io/datatypes"
)

// Branch carries the per-branch guest policy consulted by ordering and settlement.
type Branch struct {
	ID                    uint                        `gorm:"primaryKey" json:"id"`
	Name                  string                      `gorm:"type:varchar(255);not null" json:"name"`
	RequireOTPBeforeOrder bool                        `gorm:"not null;default:false" json:"require_otp_before_order"`
	PartyPinEnabled       bool                        `gorm:"not null" json:"party_pin_enabled"`
	AllowPayForOthers     bool                        `gorm:"not null;default:false" json:"allow_pay_for_others"`
	AllowPayWholeTable    bool                        `gorm:"not null;default:false" json:"allow_pay_whole_table"`
	TipsEnabled           bool                        `gorm:"not null;default:false" json:"tips_enabled"`
	TipPercents           datatypes.JSONSlice[int]    `json:"tip_percents"`
	PaymentMethods        datatypes.JSONSlice[string] `json:"payment_methods"`
	CreatedAt             time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time                   `gorm:"not null" json:"updated_at"`
}
