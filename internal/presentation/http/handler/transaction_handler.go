package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sangkips/tempo-pos/internal/application/service"
	"github.com/sangkips/tempo-pos/internal/presentation/http/dto/response"
)

// TransactionHandler handles transaction history and receipts
type TransactionHandler struct {
	txService      *service.TransactionService
	printerService *service.PrinterService
	loc            *time.Location
}

// NewTransactionHandler creates a new transaction handler. loc interprets
// plain dates in the from and to filters.
func NewTransactionHandler(txService *service.TransactionService, printerService *service.PrinterService, loc *time.Location) *TransactionHandler {
	return &TransactionHandler{txService: txService, printerService: printerService, loc: loc}
}

// List handles listing the caller's transactions
func (h *TransactionHandler) List(c *gin.Context) {
	q, err := parseTransactionFilter(c, h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.txService.List(c.Request.Context(), GetUserID(c), &service.TransactionFilter{
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

// Get handles getting a transaction by ID
func (h *TransactionHandler) Get(c *gin.Context) {
	tx, err := h.txService.Get(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Transaction retrieved successfully", tx)
}

// Print handles printing a transaction's receipt
func (h *TransactionHandler) Print(c *gin.Context) {
	receipt, err := h.printerService.PrintTransaction(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		// If receipt was built but printing failed, return receipt with warning
		if receipt != nil {
			response.OK(c, "Receipt generated but printing failed", gin.H{
				"receipt": receipt,
				"warning": err.Error(),
			})
			return
		}
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt printed successfully", gin.H{"receipt": receipt})
}

// PrinterStatus returns the current printer connection status.
func (h *TransactionHandler) PrinterStatus(c *gin.Context) {
	response.OK(c, "Printer status retrieved", h.printerService.GetStatus(c.Request.Context()))
}
