package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/middlewares"
	"github.com/yeremiapane/tableside/services"
	"github.com/yeremiapane/tableside/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> place one batch of items for the guest session
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req struct {
		Items []services.OrderItemInput `json:"items" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	order, err := oc.Orders.PlaceOrder(c.Request.Context(), middlewares.CurrentSession(c), req.Items)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order placed", order)
}

func (oc *OrderController) GetOrders(c *gin.Context) {
	orders, err := oc.Orders.ListForSession(c.Request.Context(), middlewares.CurrentSession(c).ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Orders.Get(c.Request.Context(), middlewares.CurrentSession(c), orderID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}
