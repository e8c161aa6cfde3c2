package handler

import (
	"strings"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/service"
	"tslaglobal/backend/internal/util"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Place submits an order
// POST /api/v1/orders
func (h *OrderHandler) Place(c *gin.Context) {
	var req model.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, order, "Order placed")
}

// Cancel cancels an open order
// DELETE /api/v1/orders/:id
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), c.GetString("user_id"), id)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, order, "Order cancelled")
}

// Get returns one of the caller's orders
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), c.GetString("user_id"), id)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, order)
}

// List returns the caller's orders newest first
// GET /api/v1/orders?status=OPEN
func (h *OrderHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	filter := model.OrderFilter{
		Status: model.OrderStatus(strings.ToUpper(c.Query("status"))),
		Limit:  limit,
		Offset: offset,
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), c.GetString("user_id"), filter)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendPaginated(c, orders, util.Pagination{Limit: limit, Offset: offset, Total: total})
}
