package models

import "time"

// PhoneVerification is one OTP challenge issued to a guest session.
type PhoneVerification struct {
	ID         uint       `gorm:"primaryKey"`
	SessionID  string     `gorm:"type:varchar(36);not null;index"`
	Phone      string     `gorm:"type:varchar(32);not null"`
	CodeHash   string     `gorm:"type:varchar(255);not null"`
	ExpiresAt  time.Time  `gorm:"not null"`
	Attempts   int        `gorm:"not null;default:0"`
	VerifiedAt *time.Time
	CreatedAt  time.Time `gorm:"not null"`
}
