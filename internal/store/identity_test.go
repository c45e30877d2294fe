package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentitySlot_SaveLoad(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := &User{
		ID:        "1",
		Name:      "Admin User",
		Role:      RoleAdmin,
		Email:     "admin@whatsappcrm.com",
		Secret:    "admin123",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveIdentity(ctx, user))

	loaded, err := store.LoadIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, user, loaded)
}

func TestIdentitySlot_Empty(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.LoadIdentity(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIdentitySlot_Overwrite(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveIdentity(ctx, &User{ID: "1", Role: RoleAdmin}))
	require.NoError(t, store.SaveIdentity(ctx, &User{ID: "2", Role: RoleSales}))

	loaded, err := store.LoadIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", loaded.ID)
}

func TestIdentitySlot_Clear_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveIdentity(ctx, &User{ID: "1", Role: RoleAdmin}))
	require.NoError(t, store.ClearIdentity(ctx))
	require.NoError(t, store.ClearIdentity(ctx))

	_, err := store.LoadIdentity(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIdentitySlot_Malformed_FailsClosed(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Corrupt the slot directly; LoadIdentity must treat it as empty
	// rather than failing startup.
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO identity_slot (slot, user_json) VALUES (1, '{not json')`)
	require.NoError(t, err)

	_, err = store.LoadIdentity(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
