package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleWaiter = "waiter"
)

// User is a staff member. Staff act only on tables of their own branch.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BranchID  uint      `gorm:"not null;index" json:"branch_id"`
	Name      string    `gorm:"type:varchar(255); not null" json:"name"`
	Email     string    `gorm:"type:varchar(255); unique;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255); not null" json:"-"`
	Role      string    `gorm:"type:varchar(50); not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
