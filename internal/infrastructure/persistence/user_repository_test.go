package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormUserRepository(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormUserRepository(db)

	admin := seedUser(t, db, "admin", identity.RoleAdmin)
	techA := seedUser(t, db, "tech.bo", identity.RoleTechnician)
	techB := seedUser(t, db, "tech.al", identity.RoleTechnician)
	customer := seedUser(t, db, "Alice", identity.RoleCustomer)

	t.Run("finds by username case-insensitively", func(t *testing.T) {
		found, err := repo.FindByUsername(ctx, "  ALICE ")
		require.NoError(t, err)
		assert.Equal(t, customer.ID, found.ID)
		assert.Equal(t, identity.RoleCustomer, found.Role)
	})

	t.Run("unknown username is not found", func(t *testing.T) {
		_, err := repo.FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.True(t, shared.HasCode(err, shared.CodeNotFound))
	})

	t.Run("lists technicians by username", func(t *testing.T) {
		techs, err := repo.FindByRole(ctx, identity.RoleTechnician)
		require.NoError(t, err)
		require.Len(t, techs, 2)
		assert.Equal(t, techB.ID, techs[0].ID)
		assert.Equal(t, techA.ID, techs[1].ID)
	})

	t.Run("counts only ids holding the role", func(t *testing.T) {
		count, err := repo.CountByIDsAndRole(ctx, []uuid.UUID{techA.ID, admin.ID, uuid.New()}, identity.RoleTechnician)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		count, err = repo.CountByIDsAndRole(ctx, nil, identity.RoleTechnician)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("deactivated technicians are excluded", func(t *testing.T) {
		u, err := repo.FindByID(ctx, techA.ID)
		require.NoError(t, err)
		u.Status = identity.UserStatusDeactivated
		require.NoError(t, repo.Update(ctx, u))

		count, err := repo.CountByIDsAndRole(ctx, []uuid.UUID{techA.ID}, identity.RoleTechnician)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("update of a missing user fails", func(t *testing.T) {
		ghost, err := identity.NewUser("ghost", "passw0rd1", identity.RoleCustomer)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Update(ctx, ghost), shared.ErrNotFound)
	})

	t.Run("exists by username", func(t *testing.T) {
		exists, err := repo.ExistsByUsername(ctx, "Admin")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}
