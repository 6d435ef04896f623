package service

import (
	"context"
	"time"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/domain/enum"
	"github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/pkg/apperror"
	"github.com/sangkips/tempo-pos/pkg/pagination"
)

// TransactionService reads the owner's transaction history.
type TransactionService struct {
	txRepo repository.TransactionRepository
}

// NewTransactionService creates a new transaction service
func NewTransactionService(txRepo repository.TransactionRepository) *TransactionService {
	return &TransactionService{txRepo: txRepo}
}

// TransactionFilter narrows a transaction listing. Empty fields do not filter.
type TransactionFilter struct {
	PaymentMethod *enum.PaymentMethod
	Day           string
	StartDate     *time.Time
	EndDate       *time.Time
	Pagination    *pagination.PaginationParams
}

// TransactionList is one page of transactions plus totals over every match.
type TransactionList struct {
	Items       []entity.Transaction   `json:"items"`
	Pagination  *pagination.Pagination `json:"pagination"`
	TotalAmount int64                  `json:"total_amount"`
	Count       int                    `json:"count"`
}

// List returns the owner's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, ownerID string, filter *TransactionFilter) (*TransactionList, error) {
	if filter == nil {
		filter = &TransactionFilter{}
	}
	return listTransactions(ctx, s.txRepo, &repository.TransactionFilterParams{
		OwnerID:       ownerID,
		PaymentMethod: filter.PaymentMethod,
		Day:           filter.Day,
		StartDate:     filter.StartDate,
		EndDate:       filter.EndDate,
	}, filter.Pagination)
}

// Get returns one of the owner's transactions.
func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (*entity.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil || tx.OwnerID != ownerID {
		return nil, apperror.NewNotFoundError("Transaction")
	}
	return tx, nil
}

func listTransactions(
	ctx context.Context,
	repo repository.TransactionRepository,
	params *repository.TransactionFilterParams,
	page *pagination.PaginationParams,
) (*TransactionList, error) {
	if params.Day != "" {
		if _, err := time.Parse("2006-01-02", params.Day); err != nil {
			return nil, apperror.NewFieldError("day", "must be formatted as YYYY-MM-DD")
		}
	}
	if params.StartDate != nil && params.EndDate != nil && params.EndDate.Before(*params.StartDate) {
		return nil, apperror.NewFieldError("to", "must not be before from")
	}

	txs, err := repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, tx := range txs {
		total += tx.Total
	}

	if page == nil {
		page = pagination.DefaultPagination()
	}
	items, meta := pagination.Slice(txs, page)

	return &TransactionList{
		Items:       items,
		Pagination:  meta,
		TotalAmount: total,
		Count:       len(txs),
	}, nil
}
