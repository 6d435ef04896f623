package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sangkips/tempo-pos/internal/application/service"
	"github.com/sangkips/tempo-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/tempo-pos/pkg/apperror"
)

// AdminHandler serves the cross-user dashboard
type AdminHandler struct {
	dashboardService *service.DashboardService
	userService      *service.UserService
	loc              *time.Location
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(dashboardService *service.DashboardService, userService *service.UserService, loc *time.Location) *AdminHandler {
	return &AdminHandler{dashboardService: dashboardService, userService: userService, loc: loc}
}

// MonthlySales handles the per-user monthly sales table for ?year=
func (h *AdminHandler) MonthlySales(c *gin.Context) {
	year := time.Now().In(h.loc).Year()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, apperror.NewFieldError("year", "must be a number"))
			return
		}
		year = y
	}

	sales, err := h.dashboardService.MonthlySales(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Monthly sales retrieved successfully", sales)
}

// Transactions handles listing transactions across users
func (h *AdminHandler) Transactions(c *gin.Context) {
	q, err := parseTransactionFilter(c, h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.dashboardService.Transactions(c.Request.Context(), &service.AdminTransactionFilter{
		UserID:        q.userID,
		PaymentMethod: q.method,
		Day:           q.day,
		StartDate:     q.from,
		EndDate:       q.to,
		Pagination:    q.pagination,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Transactions retrieved successfully", result)
}

// Users handles listing all users
func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Users retrieved successfully", users)
}
