package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GuestSession is one guest's visit to a table. It is never hard-deleted;
// expiry is checked on access.
type GuestSession struct {
	ID                string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	TableID           uint       `gorm:"not null;index" json:"table_id"`
	Table             Table      `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Locale            string     `gorm:"type:varchar(10);not null" json:"locale"`
	SecretHash        string     `gorm:"type:varchar(64);not null" json:"-"`
	ExpiresAt         time.Time  `gorm:"not null" json:"expires_at"`
	Verified          bool       `gorm:"not null;default:false" json:"verified"`
	VerifiedPhone     *string    `gorm:"type:varchar(32)" json:"verified_phone,omitempty"`
	PartyID           *uint      `gorm:"index" json:"party_id"`
	LastOrderAt       *time.Time `json:"-"`
	LastWaiterCallAt  *time.Time `json:"-"`
	LastBillRequestAt *time.Time `json:"-"`
	LastOTPAt         *time.Time `json:"-"`
	CreatedAt         time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null" json:"updated_at"`
}

func (s *GuestSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// ExpiredAt reports whether the session is no longer usable at now.
func (s *GuestSession) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
