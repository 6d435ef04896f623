package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sangkips/tempo-pos/internal/application/service"
	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/tempo-pos/internal/presentation/http/dto/response"
)

// ClockHandler handles stopwatch and timer HTTP requests
type ClockHandler struct {
	clockService *service.ClockService
}

// NewClockHandler creates a new clock handler
func NewClockHandler(clockService *service.ClockService) *ClockHandler {
	return &ClockHandler{clockService: clockService}
}

// List handles listing the caller's clocks
func (h *ClockHandler) List(c *gin.Context) {
	views, err := h.clockService.List(c.Request.Context(), GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Clocks retrieved successfully", views)
}

// Create handles creating a clock
func (h *ClockHandler) Create(c *gin.Context) {
	var req request.CreateClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.clockService.Create(c.Request.Context(), &service.CreateClockInput{
		OwnerID:     GetUserID(c),
		Name:        req.Name,
		RatePerHour: req.RatePerHour,
		Mode:        req.Mode,
		Duration:    time.Duration(req.DurationMs) * time.Millisecond,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Clock created successfully", view)
}

// Get handles getting a clock by ID
func (h *ClockHandler) Get(c *gin.Context) {
	view, err := h.clockService.Get(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Clock retrieved successfully", view)
}

// Update handles editing a clock
func (h *ClockHandler) Update(c *gin.Context) {
	var req request.UpdateClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	changes := entity.UnitChanges{Name: req.Name, RatePerHour: req.RatePerHour}
	if req.DurationMs != nil {
		d := time.Duration(*req.DurationMs) * time.Millisecond
		changes.Duration = &d
	}
	if req.ValueMs != nil {
		v := time.Duration(*req.ValueMs) * time.Millisecond
		changes.Value = &v
	}

	view, err := h.clockService.Update(c.Request.Context(), GetUserID(c), c.Param("id"), changes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Clock updated successfully", view)
}

// Delete handles deleting a clock
func (h *ClockHandler) Delete(c *gin.Context) {
	if err := h.clockService.Delete(c.Request.Context(), GetUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ClockHandler) Start(c *gin.Context) {
	h.transition(c, h.clockService.Start, "Clock started")
}

func (h *ClockHandler) Stop(c *gin.Context) {
	h.transition(c, h.clockService.Stop, "Clock stopped")
}

func (h *ClockHandler) Reset(c *gin.Context) {
	h.transition(c, h.clockService.Reset, "Clock reset")
}

func (h *ClockHandler) transition(
	c *gin.Context,
	op func(ctx context.Context, ownerID, id string) (*service.ClockView, error),
	message string,
) {
	view, err := op(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, message, view)
}

// AddToCart handles adding the clock's current price to the cart
func (h *ClockHandler) AddToCart(c *gin.Context) {
	line, err := h.clockService.AddToCart(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Clock added to cart", line)
}
