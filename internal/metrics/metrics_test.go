package metrics

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/zapdesk/zapdesk/internal/store"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	now := time.Now().UTC()

	users := []*store.User{
		{ID: "admin", Name: "Admin User", Role: store.RoleAdmin, Email: "admin@whatsappcrm.com", Secret: "admin123", CreatedAt: now},
		{ID: "u1", Name: "John Sales", Role: store.RoleSales, Email: "john@whatsappcrm.com", Secret: "sales123", CreatedAt: now},
		{ID: "u2", Name: "Sarah Marketing", Role: store.RoleSales, Email: "sarah@whatsappcrm.com", Secret: "sales123", CreatedAt: now},
	}
	for _, u := range users {
		require.NoError(t, st.CreateUser(ctx, u))
	}

	chats := []*store.Chat{
		{ID: "1", JID: "1@c.us", Name: "Ana", LastMessageAt: now, AssignedTo: "u1", Status: store.ChatStatusOpen},
		{ID: "2", JID: "2@c.us", Name: "Carlos", LastMessageAt: now, AssignedTo: "u2", Status: store.ChatStatusClosed},
		{ID: "3", JID: "3@c.us", Name: "Maria", LastMessageAt: now, AssignedTo: "u1", Status: store.ChatStatusInProgress},
	}
	for _, c := range chats {
		require.NoError(t, st.CreateChat(ctx, c))
	}

	// Two unread on chat 1, one on chat 2
	incoming := []struct{ chat, id string }{
		{"1", "m1"}, {"1", "m2"}, {"2", "m3"},
	}
	for _, in := range incoming {
		require.NoError(t, st.AppendMessage(ctx, &store.Message{
			ID: in.id, ChatID: in.chat, SenderName: "Contact", Text: "oi",
			Timestamp: now, Status: store.MessageStatusDelivered,
			Route: store.RouteIncoming, Type: store.MessageTypeText,
		}))
	}

	require.NoError(t, st.CreateInstance(ctx, &store.Instance{
		ID: "i1", AdminID: "admin", InstanceID: "inst_001", Token: "t1",
		CreatedAt: now, Status: store.InstanceStatusActive,
	}))
	require.NoError(t, st.CreateInstance(ctx, &store.Instance{
		ID: "i2", AdminID: "admin", InstanceID: "inst_002", Token: "t2",
		CreatedAt: now, Status: store.InstanceStatusInactive,
	}))

	return New(st, nil)
}

func TestService_Snapshot(t *testing.T) {
	svc := setupService(t)

	d, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, d.TotalChats)
	assert.Equal(t, 2, d.SalesUsers)
	assert.Equal(t, 3, d.UnreadMessages)
	assert.Equal(t, 1, d.ActiveInstances)

	assert.Equal(t, 1, d.ChatsByStatus[store.ChatStatusOpen])
	assert.Equal(t, 1, d.ChatsByStatus[store.ChatStatusInProgress])
	assert.Equal(t, 1, d.ChatsByStatus[store.ChatStatusClosed])

	require.Len(t, d.ChatsByUser, 2)
	assert.Equal(t, "John Sales", d.ChatsByUser[0].Name)
	assert.Equal(t, 2, d.ChatsByUser[0].Chats)
	assert.Equal(t, 2, d.ChatsByUser[0].Unread)
	assert.Equal(t, 1, d.ChatsByUser[1].Chats)
}

func TestService_Snapshot_AdminExcludedFromAgentLoad(t *testing.T) {
	svc := setupService(t)

	d, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	for _, load := range d.ChatsByUser {
		assert.NotEqual(t, "admin", load.UserID)
	}
}

func TestService_ExportWorkload(t *testing.T) {
	svc := setupService(t)

	data, err := svc.ExportWorkload(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Agent", "Assigned Chats", "Unread Messages"}, rows[0])
	assert.Equal(t, "John Sales", rows[1][0])
}
