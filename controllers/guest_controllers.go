package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/middlewares"
	"github.com/yeremiapane/tableside/services"
	"github.com/yeremiapane/tableside/utils"
)

// GuestController serves phone verification and waiter calls.
type GuestController struct {
	OTP    *services.OTPService
	Waiter *services.WaiterService
}

func NewGuestController(otp *services.OTPService, waiter *services.WaiterService) *GuestController {
	return &GuestController{OTP: otp, Waiter: waiter}
}

func (gc *GuestController) RequestOTP(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := gc.OTP.Request(c.Request.Context(), middlewares.CurrentSession(c), req.Phone); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusAccepted, "Verification code sent", nil)
}

func (gc *GuestController) VerifyOTP(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	session, err := gc.OTP.Verify(c.Request.Context(), middlewares.CurrentSession(c), req.Code)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Phone verified", session)
}

func (gc *GuestController) CallWaiter(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	call, err := gc.Waiter.Call(c.Request.Context(), middlewares.CurrentSession(c), req.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Waiter called", call)
}
