package entity

import (
	"time"

	"github.com/sangkips/tempo-pos/internal/domain/enum"
)

// Transaction is the append-only record of a settled cart.
type Transaction struct {
	ID             string             `json:"id"`
	OwnerID        string             `json:"owner_id"`
	CustomerName   string             `json:"customer_name"`
	PaymentMethod  enum.PaymentMethod `json:"payment_method"`
	Timestamp      time.Time          `json:"timestamp"`
	Day            string             `json:"day"`
	Year           int                `json:"year"`
	Subtotal       int64              `json:"subtotal"`
	Discount       int64              `json:"discount"`
	Total          int64              `json:"total"`
	CashTendered   *int64             `json:"cash_tendered,omitempty"`
	Change         int64              `json:"change"`
	Items          []TransactionItem  `json:"items"`
	Shortages      []StockShortage    `json:"shortages,omitempty"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
}

type TransactionItem struct {
	SourceID    string `json:"source_id"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int64  `json:"quantity"`
	LineTotal   int64  `json:"line_total"`
	StockLinked bool   `json:"stock_linked"`
}

// StockShortage reports a stock-linked line that was charged but whose
// stock decrement was skipped because it would have gone negative.
type StockShortage struct {
	LineID    string `json:"line_id"`
	SourceID  string `json:"source_id"`
	Name      string `json:"name"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

// DayKey formats t as the calendar day used to filter transactions.
func DayKey(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01-02")
}
