package repository

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
)

type userRepository struct {
	store docstore.Store
}

// NewUserRepository creates a new user repository
func NewUserRepository(store docstore.Store) domainRepo.UserRepository {
	return &userRepository{store: store}
}

// Create stores the user under its id, or a generated one when empty.
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.ID == "" {
		id, err := r.store.Create(ctx, collectionUsers, user)
		if err != nil {
			return err
		}
		user.ID = id
		return nil
	}
	err := r.store.Set(ctx, collectionUsers, user.ID, user)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return domainRepo.ErrDuplicate
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return getDoc[entity.User](ctx, r.store, collectionUsers, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	users, err := queryDocs[entity.User](ctx, r.store, collectionUsers, docstore.Filter{
		"email": strings.ToLower(strings.TrimSpace(email)),
	})
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

func (r *userRepository) Save(ctx context.Context, user *entity.User) error {
	return saveDoc(ctx, r.store, collectionUsers, user.ID, user)
}

func (r *userRepository) List(ctx context.Context) ([]entity.User, error) {
	users, err := queryDocs[entity.User](ctx, r.store, collectionUsers, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}
