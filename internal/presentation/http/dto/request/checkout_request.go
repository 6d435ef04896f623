package request

import "github.com/sangkips/tempo-pos/internal/domain/enum"

// AdjustQuantityRequest sets a cart line's quantity.
type AdjustQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

// CheckoutRequest settles the caller's cart.
type CheckoutRequest struct {
	Discount      int64              `json:"discount"`
	CustomerName  string             `json:"customer_name" binding:"max=255"`
	PaymentMethod enum.PaymentMethod `json:"payment_method"`
	CashTendered  *int64             `json:"cash_tendered"`
}

// TransactionFilterRequest represents transaction filter parameters
type TransactionFilterRequest struct {
	PaymentMethod string `form:"payment_method"`
	Day           string `form:"day"`
	From          string `form:"from"`
	To            string `form:"to"`
	UserID        string `form:"user_id"`
	Page          int    `form:"page"`
	PerPage       int    `form:"per_page"`
}
