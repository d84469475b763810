package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/repository"
	"exercise-tracker/internal/repository/memory"
)

// failingRepo simulates a storage backend that is down for writes.
type failingRepo struct {
	repository.UserRepository
	err error
}

func (f *failingRepo) Create(ctx context.Context, user *domain.User) error {
	return f.err
}

func (f *failingRepo) Update(ctx context.Context, id string, mutate repository.MutateFunc) (*domain.User, error) {
	return nil, f.err
}

func newServices(t *testing.T) (UserService, ExerciseService, repository.UserRepository) {
	t.Helper()
	repo := memory.NewUserRepository()
	users := NewUserService(repo)
	return users, NewExerciseService(users, repo), repo
}

func createUser(t *testing.T, users UserService, name string) *domain.User {
	t.Helper()
	user, err := users.CreateUser(context.Background(), name)
	require.NoError(t, err)
	return user
}
