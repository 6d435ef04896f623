package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sangkips/tempo-pos/internal/domain/billing"
	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/internal/metrics"
	"github.com/sangkips/tempo-pos/pkg/apperror"
)

// MenuService handles catalog items and adding them to the cart
type MenuService struct {
	menuRepo repository.MenuRepository
	cartRepo repository.CartRepository
	clock    billing.Clock
	log      zerolog.Logger
}

// NewMenuService creates a new menu service
func NewMenuService(
	menuRepo repository.MenuRepository,
	cartRepo repository.CartRepository,
	clock billing.Clock,
	log zerolog.Logger,
) *MenuService {
	return &MenuService{
		menuRepo: menuRepo,
		cartRepo: cartRepo,
		clock:    clock,
		log:      log.With().Str("component", "menus").Logger(),
	}
}

// MenuInput carries a create or a partial update. Nil fields are left alone
// on update and required on create.
type MenuInput struct {
	Name     *string
	Price    *int64
	Stock    *int64
	ImageURL *string
}

func (s *MenuService) Create(ctx context.Context, ownerID string, input *MenuInput) (*entity.MenuItem, error) {
	var errs []apperror.FieldError
	if input.Name == nil {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if input.Price == nil {
		errs = append(errs, apperror.FieldError{Field: "price", Message: "Price is required"})
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	now := s.clock.Now()
	item := &entity.MenuItem{OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	applyMenuInput(item, input)
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.menuRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MenuService) Update(ctx context.Context, ownerID, id string, input *MenuInput) (*entity.MenuItem, error) {
	item, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	applyMenuInput(item, input)
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.UpdatedAt = s.clock.Now()
	if err := s.menuRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func applyMenuInput(item *entity.MenuItem, input *MenuInput) {
	if input.Name != nil {
		item.Name = *input.Name
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if input.Stock != nil {
		item.Stock = *input.Stock
	}
	if input.ImageURL != nil {
		item.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
}

func (s *MenuService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.load(ctx, ownerID, id); err != nil {
		return err
	}
	return s.menuRepo.Delete(ctx, id)
}

func (s *MenuService) Get(ctx context.Context, ownerID, id string) (*entity.MenuItem, error) {
	return s.load(ctx, ownerID, id)
}

func (s *MenuService) List(ctx context.Context, ownerID string) ([]entity.MenuItem, error) {
	return s.menuRepo.ListByOwner(ctx, ownerID)
}

// AddToCart refuses items with no stock. A second add of the same item bumps
// the existing line's quantity instead of creating another line.
func (s *MenuService) AddToCart(ctx context.Context, ownerID, id string) (*entity.CartLine, error) {
	item, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !item.InStock() {
		return nil, apperror.NewOutOfStockError(item.Name)
	}

	existing, err := s.cartRepo.FindBySource(ctx, ownerID, item.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Quantity++
		if err := s.cartRepo.UpdateQuantity(ctx, existing.ID, existing.Quantity); err != nil {
			return nil, err
		}
		return existing, nil
	}

	line := &entity.CartLine{
		OwnerID:     ownerID,
		SourceID:    item.ID,
		Name:        item.Name,
		UnitPrice:   item.Price,
		Quantity:    1,
		StockLinked: true,
		ImageURL:    item.ImageURL,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.cartRepo.Add(ctx, line); err != nil {
		return nil, err
	}

	metrics.CartLinesAdded.WithLabelValues(line.Source()).Inc()
	return line, nil
}

func (s *MenuService) load(ctx context.Context, ownerID, id string) (*entity.MenuItem, error) {
	item, err := s.menuRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.OwnerID != ownerID {
		return nil, apperror.NewNotFoundError("Menu item")
	}
	return item, nil
}
