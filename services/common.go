package services

import (
	"errors"
	"time"

	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

// Clock returns the current instant. Services default to UTC wall time.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// Staff identifies an authenticated staff member acting on a branch.
type Staff struct {
	UserID   uint
	BranchID uint
	Role     string
}

// notFound maps gorm.ErrRecordNotFound to a NotFound AppError and passes other errors through.
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrNotFound(format, args...)
	}
	return err
}
