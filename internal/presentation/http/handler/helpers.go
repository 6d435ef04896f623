package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sangkips/tempo-pos/internal/domain/enum"
	"github.com/sangkips/tempo-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/tempo-pos/pkg/apperror"
	"github.com/sangkips/tempo-pos/pkg/pagination"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// GetUserEmail extracts the user email from the Gin context
func GetUserEmail(c *gin.Context) string {
	return c.GetString("user_email")
}

// IsAdmin reports whether the token carried the admin flag.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool("user_admin")
}

// queryInt64 reads an optional integer query parameter.
func queryInt64(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.NewFieldError(name, "must be a whole number")
	}
	return v, nil
}

// transactionQuery is the parsed form of TransactionFilterRequest.
type transactionQuery struct {
	method     *enum.PaymentMethod
	day        string
	from, to   *time.Time
	userID     string
	pagination *pagination.PaginationParams
}

// parseTransactionFilter accepts from/to as RFC 3339 instants or plain
// YYYY-MM-DD dates; a plain "to" date includes that whole day.
func parseTransactionFilter(c *gin.Context, loc *time.Location) (*transactionQuery, error) {
	var req request.TransactionFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return nil, apperror.NewBadRequestError("Invalid query parameters")
	}

	q := &transactionQuery{
		day:        req.Day,
		userID:     req.UserID,
		pagination: &pagination.PaginationParams{Page: req.Page, PerPage: req.PerPage},
	}
	q.pagination.Validate()

	if req.PaymentMethod != "" {
		m, err := enum.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			return nil, apperror.NewFieldError("payment_method", "Payment method must be QRIS or Cash")
		}
		q.method = &m
	}

	var err error
	if q.from, err = parseInstant(req.From, loc, false); err != nil {
		return nil, apperror.NewFieldError("from", "must be a date (YYYY-MM-DD) or RFC 3339 time")
	}
	if q.to, err = parseInstant(req.To, loc, true); err != nil {
		return nil, apperror.NewFieldError("to", "must be a date (YYYY-MM-DD) or RFC 3339 time")
	}
	return q, nil
}

func parseInstant(raw string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}
