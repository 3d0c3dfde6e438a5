package models

import (
	"time"

	"gorm.io/datatypes"
)

type Menu struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	BranchID         uint              `gorm:"not null;index" json:"branch_id"`
	Name             string            `gorm:"type:varchar(255); not null" json:"name"`
	NameTranslations datatypes.JSONMap `json:"name_translations"`
	Price            int64             `gorm:"not null" json:"price"`
	Available        bool              `gorm:"not null" json:"available"`
	ModifierGroups   []ModifierGroup   `gorm:"foreignKey:MenuID" json:"modifier_groups"`
	CreatedAt        time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null" json:"updated_at"`
}

// LocalizedName returns the translation for locale, falling back to Name.
func (m *Menu) LocalizedName(locale string) string {
	if v, ok := m.NameTranslations[locale]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return m.Name
}

type ModifierGroup struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	MenuID    uint             `gorm:"not null;index" json:"menu_id"`
	Name      string           `gorm:"type:varchar(255);not null" json:"name"`
	Required  bool             `gorm:"not null;default:false" json:"required"`
	MinSelect int              `gorm:"not null;default:0" json:"min_select"`
	MaxSelect int              `gorm:"not null;default:0" json:"max_select"`
	Options   []ModifierOption `gorm:"foreignKey:GroupID" json:"options"`
}

type ModifierOption struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	GroupID uint   `gorm:"not null;index" json:"group_id"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Price   int64  `gorm:"not null;default:0" json:"price"`
}
