package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/middlewares"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/services"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

type TableController struct {
	DB     *gorm.DB
	Orders *services.OrderService
}

func NewTableController(db *gorm.DB, orders *services.OrderService) *TableController {
	return &TableController{DB: db, Orders: orders}
}

// CreateTable -> add a table to the staff member's branch
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableNumber string `json:"table_number" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	staff := middlewares.CurrentStaff(c)
	table := models.Table{
		BranchID:    staff.BranchID,
		TableNumber: strings.TrimSpace(req.TableNumber),
	}
	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.InfoLogger.Infof("New table created: %s (branch=%d)", table.TableNumber, table.BranchID)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> tables of the staff member's branch
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Where("branch_id = ?", middlewares.CurrentStaff(c).BranchID).Order("table_number").Find(&tables).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableOrders -> orders at the table with items still open
func (tc *TableController) GetTableOrders(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, utils.ErrNotFound("table %d not found", tableID))
		return
	}
	if table.BranchID != middlewares.CurrentStaff(c).BranchID {
		utils.RespondError(c, utils.ErrForbidden("table %d belongs to another branch", tableID))
		return
	}

	orders, err := tc.Orders.ListForTable(c.Request.Context(), tableID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Open orders", orders)
}
