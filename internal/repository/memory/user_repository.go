// Package memory provides an in-process UserRepository used by tests and by
// the "memory" database driver.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	order []string
	users map[string]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Init(ctx context.Context) error {
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("insert user: %w: %w", domain.ErrPersistenceUnavailable, err)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Log = nil
	user.LogCount = 0

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.ID]; exists {
		return fmt.Errorf("insert user: duplicate id %s", user.ID)
	}
	r.users[user.ID] = user.Clone()
	r.order = append(r.order, user.ID)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		user := r.users[id]
		out = append(out, domain.User{
			ID:        user.ID,
			Username:  user.Username,
			LogCount:  user.LogCount,
			CreatedAt: user.CreatedAt,
		})
	}
	return out, nil
}

// Update works on a copy and swaps it in only when mutate succeeds, so readers
// never see a partially applied change.
func (r *UserRepository) Update(ctx context.Context, id string, mutate repository.MutateFunc) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("update user: %w: %w", domain.ErrPersistenceUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if len(next.Log) < len(current.Log) {
		return nil, fmt.Errorf("update user %s: log entries cannot be removed", id)
	}
	next.ID = current.ID
	next.LogCount = len(next.Log)

	r.users[id] = next
	return next.Clone(), nil
}
