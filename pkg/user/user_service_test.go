package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRepoStub = NewStubUserRepo()

func setup(t *testing.T) (Service, func()) {
	service := NewUserService(userRepoStub)
	return service, func() {
		t.Log("Teardown after test")
		userRepoStub.Cleanup()
	}
}

func TestServiceImpl_CreateUser(t *testing.T) {
	t.Run("should create a user with a generated uid", func(t *testing.T) {
		service, teardown := setup(t)
		defer teardown()

		// when
		created, err := service.CreateUser(context.Background(), User{Username: "ada"})

		// then
		require.NoError(t, err)
		assert.NotZero(t, created.Id)
		assert.NotEmpty(t, created.Uid)
	})

	t.Run("should reject a taken username", func(t *testing.T) {
		service, teardown := setup(t)
		defer teardown()

		// given
		_, err := service.CreateUser(context.Background(), User{Username: "ada"})
		require.NoError(t, err)

		// when
		_, err = service.CreateUser(context.Background(), User{Username: "ada"})

		// then
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})
}

func TestServiceImpl_GetCurrentUser(t *testing.T) {
	t.Run("should resolve the user from context", func(t *testing.T) {
		service, teardown := setup(t)
		defer teardown()

		created, err := service.CreateUser(context.Background(), User{Username: "ada"})
		require.NoError(t, err)

		ctx := WithUser(context.Background(), created)
		current, err := service.GetCurrentUser(ctx)

		require.NoError(t, err)
		assert.Equal(t, created.Id, current.Id)
	})

	t.Run("should return error when context has no user", func(t *testing.T) {
		service, teardown := setup(t)
		defer teardown()

		_, err := service.GetCurrentUser(context.Background())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get current user")
	})
}
