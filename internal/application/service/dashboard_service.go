package service

import (
	"context"
	"time"

	"github.com/sangkips/tempo-pos/internal/domain/enum"
	"github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/pkg/apperror"
	"github.com/sangkips/tempo-pos/pkg/pagination"
)

// DashboardService provides cross-user reporting for admins.
type DashboardService struct {
	txRepo   repository.TransactionRepository
	userRepo repository.UserRepository
	loc      *time.Location
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	txRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	loc *time.Location,
) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{
		txRepo:   txRepo,
		userRepo: userRepo,
		loc:      loc,
	}
}

// MonthlySales holds sales totals per calendar month, January first.
type MonthlySales struct {
	Year    int             `json:"year"`
	Overall [12]int64       `json:"overall"`
	Total   int64           `json:"total"`
	Users   []UserSalesLine `json:"users"`
}

// UserSalesLine is one user's row in MonthlySales.
type UserSalesLine struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Months [12]int64 `json:"months"`
	Total  int64     `json:"total"`
}

// MonthlySales buckets every transaction of the year by month, per user and
// overall. Users without sales still get a zero row.
func (s *DashboardService) MonthlySales(ctx context.Context, year int) (*MonthlySales, error) {
	if year < 1 {
		return nil, apperror.NewFieldError("year", "must be a positive year")
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.txRepo.List(ctx, &repository.TransactionFilterParams{Year: year})
	if err != nil {
		return nil, err
	}

	out := &MonthlySales{Year: year, Users: make([]UserSalesLine, 0, len(users))}
	rows := make(map[string]int, len(users))
	for _, u := range users {
		rows[u.ID] = len(out.Users)
		out.Users = append(out.Users, UserSalesLine{UserID: u.ID, Email: u.Email, Name: u.Name})
	}

	for _, tx := range txs {
		month := tx.Timestamp.In(s.loc).Month() - 1
		out.Overall[month] += tx.Total
		out.Total += tx.Total

		i, ok := rows[tx.OwnerID]
		if !ok {
			// sales by a user record that no longer exists
			i = len(out.Users)
			rows[tx.OwnerID] = i
			out.Users = append(out.Users, UserSalesLine{UserID: tx.OwnerID})
		}
		out.Users[i].Months[month] += tx.Total
		out.Users[i].Total += tx.Total
	}

	return out, nil
}

// AdminTransactionFilter narrows the cross-user transaction listing.
type AdminTransactionFilter struct {
	UserID        string
	PaymentMethod *enum.PaymentMethod
	Day           string
	StartDate     *time.Time
	EndDate       *time.Time
	Pagination    *pagination.PaginationParams
}

// Transactions lists transactions across every user.
func (s *DashboardService) Transactions(ctx context.Context, filter *AdminTransactionFilter) (*TransactionList, error) {
	if filter == nil {
		filter = &AdminTransactionFilter{}
	}
	return listTransactions(ctx, s.txRepo, &repository.TransactionFilterParams{
		OwnerID:       filter.UserID,
		PaymentMethod: filter.PaymentMethod,
		Day:           filter.Day,
		StartDate:     filter.StartDate,
		EndDate:       filter.EndDate,
	}, filter.Pagination)
}
