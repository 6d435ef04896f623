package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/tempo-pos/internal/application/service"
	"github.com/sangkips/tempo-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/tempo-pos/internal/presentation/http/dto/response"
)

// MenuHandler handles menu item HTTP requests
type MenuHandler struct {
	menuService *service.MenuService
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(menuService *service.MenuService) *MenuHandler {
	return &MenuHandler{menuService: menuService}
}

// List handles listing the caller's menu
func (h *MenuHandler) List(c *gin.Context) {
	items, err := h.menuService.List(c.Request.Context(), GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Menu retrieved successfully", items)
}

// Create handles creating a menu item
func (h *MenuHandler) Create(c *gin.Context) {
	var req request.MenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.menuService.Create(c.Request.Context(), GetUserID(c), menuInput(&req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Menu item created successfully", item)
}

// Get handles getting a menu item by ID
func (h *MenuHandler) Get(c *gin.Context) {
	item, err := h.menuService.Get(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Menu item retrieved successfully", item)
}

// Update handles updating a menu item
func (h *MenuHandler) Update(c *gin.Context) {
	var req request.MenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.menuService.Update(c.Request.Context(), GetUserID(c), c.Param("id"), menuInput(&req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Menu item updated successfully", item)
}

// Delete handles deleting a menu item
func (h *MenuHandler) Delete(c *gin.Context) {
	if err := h.menuService.Delete(c.Request.Context(), GetUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddToCart handles adding one unit of a menu item to the cart
func (h *MenuHandler) AddToCart(c *gin.Context) {
	line, err := h.menuService.AddToCart(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Menu item added to cart", line)
}

func menuInput(req *request.MenuRequest) *service.MenuInput {
	return &service.MenuInput{
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		ImageURL: req.ImageURL,
	}
}
