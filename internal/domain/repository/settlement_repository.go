package repository

import (
	"context"

	"github.com/sangkips/tempo-pos/internal/domain/checkout"
	"github.com/sangkips/tempo-pos/internal/domain/entity"
)

// SettlementRepository commits a settlement as one all-or-nothing unit:
// the transaction record, the stock decrements and the cart line deletions.
// Commit returns ErrDuplicate when a transaction with the same id exists.
//
// Each stock update is applied against live stock. A decrement the item no
// longer covers leaves its stock alone and comes back as a shortage; the rest
// of the settlement still commits.
type SettlementRepository interface {
	Commit(ctx context.Context, tx *entity.Transaction, stock []checkout.StockUpdate, lineIDs []string) ([]entity.StockShortage, error)
	// RecordShortages replaces the shortages stored on a committed transaction.
	RecordShortages(ctx context.Context, txID string, shortages []entity.StockShortage) error
}
