package instance

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdesk/zapdesk/internal/store"
)

// pngHeader is the 8-byte PNG file signature
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func setupManager(t *testing.T) *Manager {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.CreateUser(context.Background(), &store.User{
		ID:        "admin",
		Name:      "Admin User",
		Role:      store.RoleAdmin,
		Email:     "admin@whatsappcrm.com",
		Secret:    "admin123",
		CreatedAt: time.Now().UTC(),
	}))

	return New(st, nil)
}

func TestManager_Create(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "inst_001", first.InstanceID)
	assert.Equal(t, store.InstanceStatusInactive, first.Status)
	assert.Contains(t, first.Token, "waCRM_token_")

	second, err := m.Create(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "inst_002", second.InstanceID)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestManager_Create_AfterDelete(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, "admin")
	require.NoError(t, err)
	second, err := m.Create(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, "inst_002", second.InstanceID)

	// Freeing a low suffix must not make the next create collide with a
	// surviving instance id
	require.NoError(t, m.Delete(ctx, first.ID))

	third, err := m.Create(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "inst_003", third.InstanceID)
}

func TestManager_ConnectDisconnect(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	inst, err := m.Create(ctx, "admin")
	require.NoError(t, err)

	require.NoError(t, m.Connect(ctx, inst.ID))
	listed, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, store.InstanceStatusActive, listed[0].Status)

	require.NoError(t, m.Disconnect(ctx, inst.ID))
	listed, err = m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.InstanceStatusInactive, listed[0].Status)
}

func TestManager_Connect_NotFound(t *testing.T) {
	m := setupManager(t)

	assert.ErrorIs(t, m.Connect(context.Background(), "ghost"), store.ErrNotFound)
}

func TestManager_PairingQR(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	inst, err := m.Create(ctx, "admin")
	require.NoError(t, err)

	png, err := m.PairingQR(ctx, inst.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngHeader), "pairing QR should be a PNG")
}

func TestManager_Authenticate(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	inst, err := m.Create(ctx, "admin")
	require.NoError(t, err)

	// Inactive instances may not ingest
	_, err = m.Authenticate(ctx, inst.Token)
	assert.Error(t, err)

	require.NoError(t, m.Connect(ctx, inst.ID))
	got, err := m.Authenticate(ctx, inst.Token)
	require.NoError(t, err)
	assert.Equal(t, inst.ID, got.ID)

	_, err = m.Authenticate(ctx, "bogus-token")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestManager_Delete(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	inst, err := m.Create(ctx, "admin")
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, inst.ID))
	assert.ErrorIs(t, m.Delete(ctx, inst.ID), store.ErrNotFound)
}
