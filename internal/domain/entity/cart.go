package entity

import "time"

// CartLine is a price snapshot waiting to be settled. UnitPrice is fixed
// when the line is created.
type CartLine struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	SourceID    string    `json:"source_id"`
	Name        string    `json:"name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int64     `json:"quantity"`
	StockLinked bool      `json:"stock_linked"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (l CartLine) LineTotal() int64 {
	return l.UnitPrice * l.Quantity
}

// Source names where a line came from, for metrics and receipts.
func (l CartLine) Source() string {
	if l.StockLinked {
		return "menu"
	}
	return "clock"
}
