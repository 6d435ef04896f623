package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError independently of its message so callers can
// match on it with errors.Is.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindState               Kind = "state"
	KindInvalidQuantity     Kind = "invalid_quantity"
	KindInsufficientPayment Kind = "insufficient_payment"
	KindEmptyCart           Kind = "empty_cart"
	KindOutOfStock          Kind = "out_of_stock"
	KindSettlementFailed    Kind = "settlement_failed"
	KindNotFound            Kind = "not_found"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindBadRequest          Kind = "bad_request"
	KindConflict            Kind = "conflict"
	KindInternal            Kind = "internal"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`

	cause error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the collaborator error behind a wrapped AppError.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError of the same Kind, so constructed errors compare
// equal to the sentinels below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if e == t {
		return true
	}
	if t.Kind == "" || t.Kind != e.Kind {
		return false
	}
	// state errors share a kind; the message tells them apart
	if e.Kind == KindState {
		return t.Message == e.Message
	}
	return true
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrUnauthorized   = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrForbidden      = &AppError{Code: http.StatusForbidden, Kind: KindForbidden, Message: "Forbidden"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
	ErrConflict       = &AppError{Code: http.StatusConflict, Kind: KindConflict, Message: "Resource already exists"}
	ErrInvalidToken   = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Invalid token"}

	ErrValidation = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Validation failed"}

	// Clock state errors. They share KindState but stay distinguishable.
	ErrAlreadyRunning = &AppError{Code: http.StatusConflict, Kind: KindState, Message: "Clock is already running"}
	ErrNotRunning     = &AppError{Code: http.StatusConflict, Kind: KindState, Message: "Clock is not running"}
	ErrAlreadyExpired = &AppError{Code: http.StatusConflict, Kind: KindState, Message: "Timer has no time remaining"}
	ErrRunning        = &AppError{Code: http.StatusConflict, Kind: KindState, Message: "Stop the clock before editing its time"}

	ErrInvalidQuantity     = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindInvalidQuantity, Message: "Quantity must be at least 1"}
	ErrInsufficientPayment = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindInsufficientPayment, Message: "Cash tendered is less than the total"}
	ErrEmptyCart           = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindEmptyCart, Message: "Cart is empty"}
	ErrOutOfStock          = &AppError{Code: http.StatusConflict, Kind: KindOutOfStock, Message: "Item is out of stock"}
	ErrSettlementFailed    = &AppError{Code: http.StatusInternalServerError, Kind: KindSettlementFailed, Message: "Settlement failed"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldError is shorthand for a validation error on a single field.
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewInsufficientPaymentError reports how far short the tendered cash is.
func NewInsufficientPaymentError(total, tendered int64) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindInsufficientPayment,
		Message: fmt.Sprintf("Cash tendered %d is less than the total %d", tendered, total),
	}
}

// NewOutOfStockError names the item that cannot be added.
func NewOutOfStockError(name string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindOutOfStock,
		Message: name + " is out of stock",
	}
}

// NewSettlementFailed wraps a collaborator failure that aborted a settlement.
func NewSettlementFailed(cause error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindSettlementFailed,
		Message: "Settlement failed",
		cause:   cause,
	}
}

// Wrap attaches a cause to a copy of base.
func Wrap(base *AppError, cause error) *AppError {
	cp := *base
	cp.cause = cause
	return &cp
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: err.Error(),
	}
}

func kindForCode(code int) Kind {
	switch code {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusBadRequest:
		return KindBadRequest
	default:
		return KindInternal
	}
}
