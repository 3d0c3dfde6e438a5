package services

import (
	"time"

	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

// The order-item ledger is mutated only through these helpers, and only by
// bill settlement. Each runs on the caller's transaction.

// markReserved attaches billID to itemID if the item is still payable.
// The guard makes the write conditional, so two bill requests racing for the
// same item cannot both succeed.
func markReserved(tx *gorm.DB, itemID, billID uint) error {
	res := tx.Model(&models.OrderItem{}).
		Where("id = ? AND bill_request_id IS NULL AND is_closed = ?", itemID, false).
		Update("bill_request_id", billID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrConflict("order item %d is no longer payable", itemID)
	}
	return nil
}

// markPayable releases every open item reserved by billID.
func markPayable(tx *gorm.DB, billID uint) (int64, error) {
	res := tx.Model(&models.OrderItem{}).
		Where("bill_request_id = ? AND is_closed = ?", billID, false).
		Update("bill_request_id", nil)
	return res.RowsAffected, res.Error
}

// markClosed settles every open item reserved by billID. Items stay attached to the bill.
func markClosed(tx *gorm.DB, billID uint, at time.Time) (int64, error) {
	res := tx.Model(&models.OrderItem{}).
		Where("bill_request_id = ? AND is_closed = ?", billID, false).
		Updates(map[string]interface{}{"is_closed": true, "closed_at": at})
	return res.RowsAffected, res.Error
}
