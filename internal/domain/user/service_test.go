package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/chronos/internal/domain/user"
	"github.com/rpggio/chronos/internal/repository"
	"github.com/rpggio/chronos/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_CreateIssuesKey(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.UserRepository{}
	repo.On("Create", ctx, mock.MatchedBy(func(u *user.User) bool {
		return u.Name == "Ada" && u.Email == "ada@example.com" && u.ID != ""
	})).Return(nil)

	var storedHash string
	repo.On("AddAPIKey", ctx, mock.Anything, mock.Anything, "default").Run(func(args mock.Arguments) {
		storedHash = args.String(2)
	}).Return(nil)

	svc := user.NewService(repo, nil)
	u, key, err := svc.Create(ctx, user.CreateRequest{Name: " Ada ", Email: "Ada@Example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.NotEmpty(t, key)
	require.Equal(t, user.HashKey(key), storedHash)
	require.NotEqual(t, key, storedHash)
}

func TestUserService_CreateValidation(t *testing.T) {
	svc := user.NewService(&mocks.UserRepository{}, nil)

	_, _, err := svc.Create(context.Background(), user.CreateRequest{Name: "", Email: "a@b.c"})
	require.ErrorIs(t, err, user.ErrInvalidInput)

	_, _, err = svc.Create(context.Background(), user.CreateRequest{Name: "Ada", Email: "nope"})
	require.ErrorIs(t, err, user.ErrInvalidInput)
}

func TestUserService_CreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.UserRepository{}
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicate)

	_, _, err := user.NewService(repo, nil).Create(ctx, user.CreateRequest{Name: "Ada", Email: "ada@example.com"})
	require.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestUserService_ResolveUser(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.UserRepository{}
	repo.On("UserIDForKey", ctx, user.HashKey("good")).Return("u1", nil)
	repo.On("UserIDForKey", ctx, user.HashKey("bad")).Return("", repository.ErrNotFound)
	repo.On("UserIDForKey", ctx, user.HashKey("boom")).Return("", errors.New("closed"))

	svc := user.NewService(repo, nil)

	id, err := svc.ResolveUser(ctx, " good ")
	require.NoError(t, err)
	require.Equal(t, "u1", id)

	_, err = svc.ResolveUser(ctx, "bad")
	require.ErrorIs(t, err, user.ErrUnauthorized)

	_, err = svc.ResolveUser(ctx, "")
	require.ErrorIs(t, err, user.ErrUnauthorized)

	_, err = svc.ResolveUser(ctx, "boom")
	require.ErrorContains(t, err, "closed")
}

func TestUserService_EnsureUserIsIdempotent(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.UserRepository{}
	repo.On("Create", ctx, mock.MatchedBy(func(u *user.User) bool {
		return u.ID == "local" && u.Email == "local@localhost"
	})).Return(nil).Once()
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicate).Once()

	svc := user.NewService(repo, nil)
	require.NoError(t, svc.EnsureUser(ctx, "local", "Local"))
	require.NoError(t, svc.EnsureUser(ctx, "local", "Local"))
	repo.AssertExpectations(t)

	require.ErrorIs(t, svc.EnsureUser(ctx, " ", "x"), user.ErrInvalidInput)
}
