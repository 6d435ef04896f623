package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/tempo-pos/internal/application/service"
	"github.com/sangkips/tempo-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/tempo-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/tempo-pos/internal/presentation/http/middleware"
)

// CheckoutHandler handles cart settlement
type CheckoutHandler struct {
	settlementService *service.SettlementService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(settlementService *service.SettlementService) *CheckoutHandler {
	return &CheckoutHandler{settlementService: settlementService}
}

// Checkout settles the caller's cart. The Idempotency-Key header, when
// present, makes retries return the first transaction.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req request.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.settlementService.Settle(c.Request.Context(), &service.SettleInput{
		OwnerID:        GetUserID(c),
		Discount:       req.Discount,
		CustomerName:   req.CustomerName,
		Method:         req.PaymentMethod,
		CashTendered:   req.CashTendered,
		IdempotencyKey: c.GetHeader(middleware.IdempotencyKeyHeader),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Replayed {
		c.Header(middleware.IdempotencyReplayedHeader, "true")
		response.OK(c, "Checkout already completed", result)
		return
	}
	message := "Checkout completed"
	if len(result.Shortages) > 0 {
		message = "Checkout completed with stock shortages"
	}
	response.Created(c, message, result)
}
