package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/repository/memory"
)

func TestCreateUserStartsWithEmptyLog(t *testing.T) {
	users, _, _ := newServices(t)

	user, err := users.CreateUser(context.Background(), "  alice ")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Zero(t, user.LogCount)
	require.Empty(t, user.Log)
	_, err = uuid.Parse(user.ID)
	require.NoError(t, err)

	stored, err := users.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, stored.ID)
	require.Zero(t, stored.LogCount)
}

func TestCreateUserRequiresUsername(t *testing.T) {
	users, _, _ := newServices(t)

	for _, name := range []string{"", "   "} {
		_, err := users.CreateUser(context.Background(), name)
		require.ErrorIs(t, err, domain.ErrValidation)
	}

	all, err := users.ListUsers(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestCreateUserAssignsDistinctIDsForSameUsername(t *testing.T) {
	users, _, _ := newServices(t)

	a := createUser(t, users, "alice")
	b := createUser(t, users, "alice")
	require.NotEqual(t, a.ID, b.ID)

	all, err := users.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, a.ID, all[0].ID)
	require.Equal(t, b.ID, all[1].ID)
}

func TestGetUserUnknownAndMalformedIDs(t *testing.T) {
	users, _, _ := newServices(t)
	createUser(t, users, "alice")

	_, err := users.GetUser(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = users.GetUser(context.Background(), "not-an-id")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreateUserSurfacesPersistenceFailure(t *testing.T) {
	storeErr := errors.Join(domain.ErrPersistenceUnavailable, errors.New("disk full"))
	users := NewUserService(&failingRepo{UserRepository: memory.NewUserRepository(), err: storeErr})

	_, err := users.CreateUser(context.Background(), "alice")
	require.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
}
