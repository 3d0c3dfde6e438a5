package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/services"
	"github.com/yeremiapane/tableside/utils"
)

type MaintenanceController struct {
	Parties *services.PartyService
	Bills   *services.BillService
}

func NewMaintenanceController(parties *services.PartyService, bills *services.BillService) *MaintenanceController {
	return &MaintenanceController{Parties: parties, Bills: bills}
}

func (mc *MaintenanceController) SweepParties(c *gin.Context) {
	closed, err := mc.Parties.SweepExpired(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Expired parties closed", gin.H{"closed": closed})
}

func (mc *MaintenanceController) SweepBillRequests(c *gin.Context) {
	expired, err := mc.Bills.SweepExpired(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Expired bill requests released", gin.H{"expired": expired})
}
