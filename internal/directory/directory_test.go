package directory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdesk/zapdesk/internal/store"
)

func setupService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return New(st, nil), st
}

func TestService_Create(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateParams{
		Name:   "Mike Support",
		Role:   store.RoleSales,
		Email:  "mike@whatsappcrm.com",
		Secret: "sales123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, store.RoleSales, user.Role)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, user.ID, listed[0].ID)
}

func TestService_Create_Validation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	cases := []CreateParams{
		{Name: "", Role: store.RoleSales, Email: "a@b.com", Secret: "x"},
		{Name: "A", Role: "manager", Email: "a@b.com", Secret: "x"},
		{Name: "A", Role: store.RoleSales, Email: "not-an-email", Secret: "x"},
		{Name: "A", Role: store.RoleSales, Email: "a@b.com", Secret: ""},
	}
	for _, p := range cases {
		_, err := svc.Create(ctx, p)
		assert.Error(t, err)
	}
}

func TestService_Create_DuplicateEmail(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	p := CreateParams{Name: "A", Role: store.RoleSales, Email: "a@b.com", Secret: "x"}
	_, err := svc.Create(ctx, p)
	require.NoError(t, err)

	p.Name = "B"
	_, err = svc.Create(ctx, p)
	assert.ErrorIs(t, err, store.ErrDuplicateUser)
}

func TestService_Update_KeepsSecretWhenEmpty(t *testing.T) {
	svc, st := setupService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateParams{
		Name: "A", Role: store.RoleSales, Email: "a@b.com", Secret: "original",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, user.ID, CreateParams{
		Name: "A Renamed", Role: store.RoleSales, Email: "a@b.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "A Renamed", updated.Name)
	assert.Equal(t, "original", updated.Secret)

	stored, err := st.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Secret)
}

func TestService_Update_NotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Update(context.Background(), "ghost", CreateParams{
		Name: "A", Role: store.RoleSales, Email: "a@b.com",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_Delete_BlockedByAssignedChats(t *testing.T) {
	svc, st := setupService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateParams{
		Name: "A", Role: store.RoleSales, Email: "a@b.com", Secret: "x",
	})
	require.NoError(t, err)

	require.NoError(t, st.CreateChat(ctx, &store.Chat{
		ID:            "c1",
		JID:           "c1@c.us",
		Name:          "Contact",
		LastMessageAt: time.Now().UTC(),
		AssignedTo:    user.ID,
		Status:        store.ChatStatusOpen,
	}))

	assert.ErrorIs(t, svc.Delete(ctx, user.ID), store.ErrUserAssigned)

	// After reassignment away, deletion works (reassign to another user)
	other, err := svc.Create(ctx, CreateParams{
		Name: "B", Role: store.RoleSales, Email: "b@b.com", Secret: "x",
	})
	require.NoError(t, err)
	require.NoError(t, st.UpdateChatAssignee(ctx, "c1", other.ID))
	assert.NoError(t, svc.Delete(ctx, user.ID))
}
