package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/models"
	"storefront/services"
)

type OrderController struct {
	orders  *services.OrderService
	timeout time.Duration
}

func NewOrderController(orders *services.OrderService, timeout time.Duration) *OrderController {
	return &OrderController{orders: orders, timeout: timeout}
}

// Create places an order from the caller's cart.
func (h *OrderController) Create(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	var input struct {
		PaymentMethod   string          `json:"paymentMethod" binding:"required"`
		ShippingAddress *models.Address `json:"shippingAddress"`
		Phone           string          `json:"phone"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	order, err := h.orders.Create(ctx, caller, services.CreateOrderInput{
		PaymentMethod:   input.PaymentMethod,
		ShippingAddress: input.ShippingAddress,
		Phone:           input.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order created", "order": order})
}

func (h *OrderController) List(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	page, err := h.orders.List(ctx, caller, services.ParsePage(c.Query("page"), c.Query("limit")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *OrderController) Get(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	order, err := h.orders.Get(ctx, caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderController) Delete(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.orders.Delete(ctx, caller, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}

func (h *OrderController) UpdateStatus(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &body) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	order, err := h.orders.UpdateStatus(ctx, caller, c.Param("id"), body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}
