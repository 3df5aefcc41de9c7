//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/models"
)

func TestUserRepository_UpsertAndGet(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := tc.ctx()
	repo := NewUserRepository()

	user := tc.createUser("ada")
	assert.False(t, user.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Username, got.Username)

	// Upsert refreshes the profile of an existing user.
	user.Name = "Ada Lovelace"
	user.Email = "ada@example.com"
	require.NoError(t, repo.Upsert(ctx, user))

	got, err = repo.GetByUsername(ctx, user.Username)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, "ada@example.com", got.Email)
}

func TestUserRepository_UsernameTaken(t *testing.T) {
	tc := setupRepoTest(t)
	existing := tc.createUser("grace")

	err := NewUserRepository().Upsert(tc.ctx(), &models.User{
		ID:       uuid.New(),
		Name:     "Impostor",
		Username: existing.Username,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUserRepository_NotFound(t *testing.T) {
	tc := setupRepoTest(t)

	_, err := NewUserRepository().GetByID(tc.ctx(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFriendRepository_Symmetric(t *testing.T) {
	tc := setupRepoTest(t)
	repo := NewFriendRepository()

	ada := tc.createUser("ada")
	bob := tc.createUser("bob")

	err := tc.tx.WithinTx(tc.ctx(), func(ctx context.Context) error {
		return repo.Add(ctx, ada.ID, bob.ID)
	})
	require.NoError(t, err)

	ctx := tc.ctx()
	for _, pair := range [][2]uuid.UUID{{ada.ID, bob.ID}, {bob.ID, ada.ID}} {
		ok, err := repo.Exists(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, ok)
	}

	assert.ErrorIs(t, repo.Add(ctx, bob.ID, ada.ID), apperrors.ErrConflict)

	friends, err := repo.List(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, bob.ID, friends[0].UserID)

	require.NoError(t, repo.Remove(ctx, bob.ID, ada.ID))
	ok, err := repo.Exists(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, repo.Remove(ctx, ada.ID, bob.ID), apperrors.ErrNotFound)
}
