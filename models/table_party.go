package models

import (
	"fmt"
	"time"
)

type PartyStatus string

const (
	PartyActive PartyStatus = "ACTIVE"
	PartyClosed PartyStatus = "CLOSED"
)

// TableParty groups guest sessions at one table under a short PIN.
// ActiveKey is "<tableID>:<pin>" while the party is ACTIVE and NULL once closed;
// its unique index keeps PINs unique among active parties of a table.
type TableParty struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	TableID   uint        `gorm:"not null;index" json:"table_id"`
	Pin       string      `gorm:"type:varchar(4);not null" json:"pin"`
	Status    PartyStatus `gorm:"type:varchar(10);not null;index" json:"status"`
	ActiveKey *string     `gorm:"type:varchar(32);uniqueIndex" json:"-"`
	ExpiresAt time.Time   `gorm:"not null" json:"expires_at"`
	ClosedAt  *time.Time  `json:"closed_at,omitempty"`
	CreatedAt time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null" json:"updated_at"`
}

func PartyActiveKey(tableID uint, pin string) string {
	return fmt.Sprintf("%d:%s", tableID, pin)
}

// LiveFor reports whether the party may be referenced by a session of tableID at now.
func (p *TableParty) LiveFor(tableID uint, now time.Time) bool {
	return p.Status == PartyActive && p.TableID == tableID && p.ExpiresAt.After(now)
}
