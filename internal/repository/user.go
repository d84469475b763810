package repository

import (
	"context"

	"exercise-tracker/internal/domain"
)

// MutateFunc changes a loaded user in place. Returning an error aborts the update.
type MutateFunc func(user *domain.User) error

// UserRepository defines persistence operations for User aggregates.
//
// GetByID and Update return domain.ErrUserNotFound for unknown ids. Storage
// failures are wrapped with domain.ErrPersistenceUnavailable.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// Update loads the user, applies mutate and persists the result as one
	// atomic read-modify-write. The returned user reflects the committed state.
	Update(ctx context.Context, id string, mutate MutateFunc) (*domain.User, error)
}
