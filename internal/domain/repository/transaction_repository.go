package repository

import (
	"context"
	"time"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/domain/enum"
)

// TransactionRepository reads settled transactions. Writes only happen
// through SettlementRepository.
type TransactionRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	// List returns matching transactions, newest first.
	List(ctx context.Context, params *TransactionFilterParams) ([]entity.Transaction, error)
}

// TransactionFilterParams contains filtering parameters for transaction queries.
// Empty fields do not filter.
type TransactionFilterParams struct {
	OwnerID       string
	PaymentMethod *enum.PaymentMethod
	Day           string // YYYY-MM-DD in the billing location
	Year          int
	StartDate     *time.Time
	EndDate       *time.Time
}
