package entity

// ReceiptHeader holds the store header printed at the top of a receipt.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// ReceiptItem represents a single line item on a receipt.
type ReceiptItem struct {
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Total     int64  `json:"total"`
}

// Receipt is a printable value object composed from a transaction at print time.
type Receipt struct {
	Header      ReceiptHeader `json:"header"`
	InvoiceNo   string        `json:"invoice_no"`
	Date        string        `json:"date"`
	Customer    string        `json:"customer,omitempty"`
	PaymentType string        `json:"payment_type"`
	Currency    string        `json:"currency"`
	Items       []ReceiptItem `json:"items"`
	SubTotal    int64         `json:"sub_total"`
	Discount    int64         `json:"discount"`
	Total       int64         `json:"total"`
	Paid        int64         `json:"paid"`
	Change      int64         `json:"change"`
}
