package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/tempo-pos/internal/application/service"
	"github.com/sangkips/tempo-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/tempo-pos/internal/presentation/http/dto/response"
)

// CartHandler handles cart HTTP requests
type CartHandler struct {
	cartService *service.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// List handles listing the cart with totals for an optional ?discount=
func (h *CartHandler) List(c *gin.Context) {
	discount, err := queryInt64(c, "discount")
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.cartService.List(c.Request.Context(), GetUserID(c), discount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart retrieved successfully", summary)
}

// Total handles computing the cart total for an optional ?discount=
func (h *CartHandler) Total(c *gin.Context) {
	discount, err := queryInt64(c, "discount")
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := h.cartService.Total(c.Request.Context(), GetUserID(c), discount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart total computed", gin.H{"total": total})
}

// AdjustQuantity handles setting a line's quantity
func (h *CartHandler) AdjustQuantity(c *gin.Context) {
	var req request.AdjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	line, err := h.cartService.AdjustQuantity(c.Request.Context(), GetUserID(c), c.Param("id"), req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart line updated", line)
}

// RemoveLine handles removing a cart line
func (h *CartHandler) RemoveLine(c *gin.Context) {
	if err := h.cartService.RemoveLine(c.Request.Context(), GetUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
