package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/sangkips/tempo-pos/internal/domain/billing"
	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/pkg/apperror"
)

// UserService handles user management operations
type UserService struct {
	userRepo repository.UserRepository
	clock    billing.Clock
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, clock billing.Clock) *UserService {
	return &UserService{userRepo: userRepo, clock: clock}
}

// EnsureUserInput identifies a user by email.
type EnsureUserInput struct {
	Email   string
	Name    string
	IsAdmin bool
}

// EnsureUser returns the user with the given email, creating it when absent.
// Name and admin flag of an existing user are refreshed from the input.
func (s *UserService) EnsureUser(ctx context.Context, input *EnsureUserInput) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.NewFieldError("email", "must be a valid email address")
	}
	name := strings.TrimSpace(input.Name)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		changed := false
		if name != "" && name != user.Name {
			user.Name = name
			changed = true
		}
		if input.IsAdmin != user.IsAdmin {
			user.IsAdmin = input.IsAdmin
			changed = true
		}
		if changed {
			if err := s.userRepo.Save(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	if name == "" {
		name = email[:strings.Index(email, "@")]
	}
	user = &entity.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		IsAdmin:   input.IsAdmin,
		CreatedAt: s.clock.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflictError("User already exists")
		}
		return nil, err
	}
	return user, nil
}

// GetUser returns a user by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// ListUsers returns every user ordered by email.
func (s *UserService) ListUsers(ctx context.Context) ([]entity.User, error) {
	return s.userRepo.List(ctx)
}
