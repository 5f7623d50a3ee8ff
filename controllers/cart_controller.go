package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/services"
)

type CartController struct {
	carts   *services.CartService
	timeout time.Duration
}

func NewCartController(carts *services.CartService, timeout time.Duration) *CartController {
	return &CartController{carts: carts, timeout: timeout}
}

func (h *CartController) Get(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	cart, err := h.carts.View(ctx, caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

func (h *CartController) AddItem(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	var input struct {
		ProductID string `json:"productId" binding:"required,objectid"`
		Qty       *int   `json:"qty" binding:"omitempty,min=1"`
	}
	if !bindJSON(c, &input) {
		return
	}
	qty := 1
	if input.Qty != nil {
		qty = *input.Qty
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	cart, err := h.carts.AddItem(ctx, caller, input.ProductID, qty)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item added to cart", "cart": cart})
}

func (h *CartController) UpdateItem(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	var input struct {
		Qty *int `json:"qty" binding:"required,gte=0"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	cart, err := h.carts.SetQty(ctx, caller, c.Param("productId"), *input.Qty)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated", "cart": cart})
}

func (h *CartController) RemoveItem(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	cart, err := h.carts.RemoveItem(ctx, caller, c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart", "cart": cart})
}

func (h *CartController) Clear(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	cart, err := h.carts.Clear(ctx, caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared", "cart": cart})
}
