package services

import (
	"context"

	"github.com/yeremiapane/tableside/models"
	"gorm.io/gorm"
)

// MenuResolver returns a menu item with its modifier groups and options.
// It is consulted at order time only; order items keep their own snapshots.
type MenuResolver interface {
	Resolve(ctx context.Context, menuID uint) (*models.Menu, error)
}

type MenuCatalog struct {
	DB *gorm.DB
}

func (m *MenuCatalog) Resolve(ctx context.Context, menuID uint) (*models.Menu, error) {
	var menu models.Menu
	err := m.DB.WithContext(ctx).
		Preload("ModifierGroups").
		Preload("ModifierGroups.Options").
		First(&menu, menuID).Error
	if err != nil {
		return nil, notFound(err, "menu item %d not found", menuID)
	}
	return &menu, nil
}
