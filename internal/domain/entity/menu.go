package entity

import (
	"strings"
	"time"

	"github.com/sangkips/tempo-pos/pkg/apperror"
)

// MenuItem is a catalog item with finite stock.
type MenuItem struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Stock     int64     `json:"stock"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields a cashier can edit.
func (m *MenuItem) Validate() error {
	var errs []apperror.FieldError
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if m.Price < 0 {
		errs = append(errs, apperror.FieldError{Field: "price", Message: "Price must not be negative"})
	}
	if m.Stock < 0 {
		errs = append(errs, apperror.FieldError{Field: "stock", Message: "Stock must not be negative"})
	}
	if len(errs) > 0 {
		return apperror.NewValidationError(errs)
	}
	return nil
}

func (m *MenuItem) InStock() bool {
	return m.Stock > 0
}
