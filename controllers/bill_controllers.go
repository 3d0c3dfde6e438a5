package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/middlewares"
	"github.com/yeremiapane/tableside/services"
	"github.com/yeremiapane/tableside/utils"
)

type BillController struct {
	Bills *services.BillService
}

func NewBillController(bills *services.BillService) *BillController {
	return &BillController{Bills: bills}
}

func (bc *BillController) CreateBillRequest(c *gin.Context) {
	var req services.CreateBillInput
	if !bindJSON(c, &req) {
		return
	}

	bill, err := bc.Bills.Create(c.Request.Context(), middlewares.CurrentSession(c), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Bill requested", bill)
}

func (bc *BillController) GetBillRequest(c *gin.Context) {
	billID, ok := paramID(c, "bill_id")
	if !ok {
		return
	}
	bill, err := bc.Bills.Get(c.Request.Context(), middlewares.CurrentSession(c), billID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill request", bill)
}

func (bc *BillController) GetLatestBillRequest(c *gin.Context) {
	bill, err := bc.Bills.Latest(c.Request.Context(), middlewares.CurrentSession(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Latest bill request", bill)
}

func (bc *BillController) CancelBillRequest(c *gin.Context) {
	billID, ok := paramID(c, "bill_id")
	if !ok {
		return
	}
	bill, err := bc.Bills.Cancel(c.Request.Context(), middlewares.CurrentSession(c), billID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill request cancelled", bill)
}

func (bc *BillController) CloseBillRequest(c *gin.Context) {
	billID, ok := paramID(c, "bill_id")
	if !ok {
		return
	}
	bill, err := bc.Bills.Close(c.Request.Context(), middlewares.CurrentSession(c), billID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill request closed", bill)
}

// ConfirmPaid -> staff collected the money
func (bc *BillController) ConfirmPaid(c *gin.Context) {
	billID, ok := paramID(c, "bill_id")
	if !ok {
		return
	}
	bill, err := bc.Bills.ConfirmPaid(c.Request.Context(), middlewares.CurrentStaff(c), billID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment confirmed", bill)
}

// GetTableBillRequests lists the open bill requests of one table for staff.
func (bc *BillController) GetTableBillRequests(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	bills, err := bc.Bills.ListForTable(c.Request.Context(), middlewares.CurrentStaff(c), tableID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Open bill requests", bills)
}
