// Package checkout holds the pure cart arithmetic and the settlement plan.
// Nothing here touches storage; the settlement service commits a Plan.
package checkout

import (
	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/domain/enum"
	"github.com/sangkips/tempo-pos/pkg/apperror"
)

// Subtotal is the sum of line totals before discount.
func Subtotal(lines []entity.CartLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.LineTotal()
	}
	return sum
}

// ComputeTotal is max(0, subtotal - discount). A negative discount counts as zero.
func ComputeTotal(lines []entity.CartLine, discount int64) int64 {
	if discount < 0 {
		discount = 0
	}
	total := Subtotal(lines) - discount
	if total < 0 {
		return 0
	}
	return total
}

// AdjustQuantity returns a copy of lines with one line's quantity changed.
func AdjustQuantity(lines []entity.CartLine, lineID string, qty int64) ([]entity.CartLine, error) {
	if qty < 1 {
		return lines, apperror.ErrInvalidQuantity
	}
	out := make([]entity.CartLine, len(lines))
	copy(out, lines)
	for i := range out {
		if out[i].ID == lineID {
			out[i].Quantity = qty
			return out, nil
		}
	}
	return lines, apperror.NewNotFoundError("Cart line")
}

// RemoveLine drops a line. Removing an absent line is a no-op.
func RemoveLine(lines []entity.CartLine, lineID string) []entity.CartLine {
	out := make([]entity.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.ID != lineID {
			out = append(out, l)
		}
	}
	return out
}

type Input struct {
	Lines        []entity.CartLine
	Discount     int64
	CustomerName string
	Method       enum.PaymentMethod
	// CashTendered is required for cash payments; nil counts as zero.
	CashTendered *int64
}

// StockUpdate is the stock one cart line takes from its menu item. It is
// applied as a guarded decrement, never as an absolute level.
type StockUpdate struct {
	LineID   string
	MenuID   string
	Name     string
	Quantity int64
}

// Plan is everything a settlement will write, computed before any mutation.
type Plan struct {
	Subtotal     int64
	Discount     int64
	Total        int64
	Change       int64
	Items        []entity.TransactionItem
	StockUpdates []StockUpdate
	Shortages    []entity.StockShortage
	LineIDs      []string
}

// NewPlan validates a settlement and walks stock-linked lines in cart order
// against stock, keyed by menu item id. A line whose decrement would drive
// stock negative, or whose item no longer exists, is still charged but is
// reported as a shortage and leaves that item's stock untouched. The stock
// map is a snapshot; the commit re-checks each decrement against live stock.
func NewPlan(in Input, stock map[string]int64) (*Plan, error) {
	if len(in.Lines) == 0 {
		return nil, apperror.ErrEmptyCart
	}
	if !in.Method.Valid() {
		return nil, apperror.NewFieldError("payment_method", "Payment method must be QRIS or Cash")
	}
	for _, l := range in.Lines {
		if l.Quantity < 1 {
			return nil, apperror.ErrInvalidQuantity
		}
	}

	discount := in.Discount
	if discount < 0 {
		discount = 0
	}
	p := &Plan{
		Subtotal: Subtotal(in.Lines),
		Discount: discount,
		Total:    ComputeTotal(in.Lines, discount),
	}

	if in.Method == enum.PaymentMethodCash {
		var tendered int64
		if in.CashTendered != nil {
			tendered = *in.CashTendered
		}
		if tendered < 0 {
			return nil, apperror.NewFieldError("cash_tendered", "Cash tendered must not be negative")
		}
		if tendered < p.Total {
			return nil, apperror.NewInsufficientPaymentError(p.Total, tendered)
		}
		p.Change = tendered - p.Total
	}

	remaining := make(map[string]int64, len(stock))
	for id, n := range stock {
		remaining[id] = n
	}

	for _, l := range in.Lines {
		p.LineIDs = append(p.LineIDs, l.ID)
		p.Items = append(p.Items, entity.TransactionItem{
			SourceID:    l.SourceID,
			Name:        l.Name,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			LineTotal:   l.LineTotal(),
			StockLinked: l.StockLinked,
		})
		if !l.StockLinked {
			continue
		}

		available, ok := remaining[l.SourceID]
		if !ok || available-l.Quantity < 0 {
			p.Shortages = append(p.Shortages, entity.StockShortage{
				LineID:    l.ID,
				SourceID:  l.SourceID,
				Name:      l.Name,
				Requested: l.Quantity,
				Available: available,
			})
			continue
		}

		remaining[l.SourceID] = available - l.Quantity
		p.StockUpdates = append(p.StockUpdates, StockUpdate{
			LineID:   l.ID,
			MenuID:   l.SourceID,
			Name:     l.Name,
			Quantity: l.Quantity,
		})
	}
	return p, nil
}
