package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/models"
	"storefront/services"
)

type ProductController struct {
	products *services.ProductService
	timeout  time.Duration
}

func NewProductController(products *services.ProductService, timeout time.Duration) *ProductController {
	return &ProductController{products: products, timeout: timeout}
}

func (h *ProductController) List(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	filter := models.ProductFilter{
		Category: c.Query("category"),
		Query:    c.Query("q"),
	}
	page, err := h.products.List(ctx, filter, services.ParsePage(c.Query("page"), c.Query("limit")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProductController) Get(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	product, err := h.products.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *ProductController) Create(c *gin.Context) {
	var input struct {
		Name        string         `json:"name" binding:"required"`
		Description string         `json:"description"`
		Price       *float64       `json:"price" binding:"required,gte=0"`
		Stock       *int           `json:"stock" binding:"omitempty,gte=0"`
		Category    string         `json:"category" binding:"required"`
		Images      []models.Image `json:"images"`
	}
	if !bindJSON(c, &input) {
		return
	}

	in := services.ProductInput{
		Name:        input.Name,
		Description: input.Description,
		Price:       *input.Price,
		Category:    input.Category,
		Images:      input.Images,
	}
	if input.Stock != nil {
		in.Stock = *input.Stock
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	product, err := h.products.Create(ctx, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product created", "product": product})
}

func (h *ProductController) Update(c *gin.Context) {
	var patch models.ProductPatch
	if !bindJSON(c, &patch) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	product, err := h.products.Update(ctx, c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated", "product": product})
}

func (h *ProductController) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.products.Delete(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
