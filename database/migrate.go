package database

import (
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Branch{},
		&models.Table{},
		&models.User{},
		&models.Menu{},
		&models.ModifierGroup{},
		&models.ModifierOption{},
		&models.GuestSession{},
		&models.TableParty{},
		&models.Order{},
		&models.OrderItem{},
		&models.BillRequest{},
		&models.BillRequestItem{},
		&models.WaiterCall{},
		&models.PhoneVerification{},
	)
	if err != nil {
		utils.ErrorLogger.Errorf("Failed to AutoMigrate: %v", err)
		return err
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
