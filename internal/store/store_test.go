package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// seedUser inserts a user with sensible defaults.
func seedUser(t *testing.T, s *SQLiteStore, id, role string) *User {
	t.Helper()
	user := &User{
		ID:        id,
		Name:      "User " + id,
		Role:      role,
		Email:     id + "@whatsappcrm.com",
		Secret:    "secret-" + id,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

// seedChat inserts a chat assigned to the given user.
func seedChat(t *testing.T, s *SQLiteStore, id, assignedTo string) *Chat {
	t.Helper()
	chat := &Chat{
		ID:            id,
		JID:           id + "@c.us",
		Name:          "Contact " + id,
		LastMessage:   "hello",
		LastMessageAt: time.Now().UTC().Truncate(time.Second),
		AssignedTo:    assignedTo,
		Status:        ChatStatusOpen,
	}
	require.NoError(t, s.CreateChat(context.Background(), chat))
	return chat
}

func TestStore_CreateUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "u1", RoleAdmin)

	retrieved, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, user.Email, retrieved.Email)
	assert.Equal(t, RoleAdmin, retrieved.Role)
	assert.Equal(t, user.CreatedAt, retrieved.CreatedAt)
}

func TestStore_CreateUser_DuplicateEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", RoleSales)

	dup := &User{
		ID:        "u2",
		Name:      "Other",
		Role:      RoleSales,
		Email:     "u1@whatsappcrm.com",
		Secret:    "x",
		CreatedAt: time.Now(),
	}
	err := store.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestStore_GetUser_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetUser(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetUserByEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", RoleSales)

	user, err := store.GetUserByEmail(ctx, "u1@whatsappcrm.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = store.GetUserByEmail(ctx, "nobody@whatsappcrm.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "u1", RoleSales)
	user.Name = "Renamed"
	user.Secret = "newsecret"

	require.NoError(t, store.UpdateUser(ctx, user))

	retrieved, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", retrieved.Name)
	assert.Equal(t, "newsecret", retrieved.Secret)
}

func TestStore_UpdateUser_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.UpdateUser(context.Background(), &User{ID: "ghost", Role: RoleSales})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteUser_BlockedByAssignment(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", RoleSales)
	seedChat(t, store, "c1", "u1")

	err := store.DeleteUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrUserAssigned)

	// Still retrievable
	_, err = store.GetUser(ctx, "u1")
	assert.NoError(t, err)
}

func TestStore_DeleteUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", RoleSales)
	require.NoError(t, store.DeleteUser(ctx, "u1"))

	_, err := store.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.DeleteUser(ctx, "u1"), ErrNotFound)
}

func TestStore_ListUsers_Order(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		user := &User{
			ID:        fmt.Sprintf("u%d", i),
			Name:      fmt.Sprintf("User %d", i),
			Role:      RoleSales,
			Email:     fmt.Sprintf("u%d@whatsappcrm.com", i),
			Secret:    "s",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.CreateUser(ctx, user))
	}

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "u3", users[2].ID)
}

func TestStore_CreateChat_Duplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", RoleSales)
	chat := seedChat(t, store, "c1", "u1")

	err := store.CreateChat(ctx, chat)
	assert.ErrorIs(t, err, ErrDuplicateChat)
}

func TestStore_UpdateChatStatus(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", RoleSales)
	seedChat(t, store, "c1", "u1")

	// All six transitions are permitted; walk a closed chat back to open.
	require.NoError(t, store.UpdateChatStatus(ctx, "c1", ChatStatusClosed))
	require.NoError(t, store.UpdateChatStatus(ctx, "c1", ChatStatusOpen))

	chat, err := store.GetChat(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, ChatStatusOpen, chat.Status)
}

func TestStore_UpdateChatStatus_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.UpdateChatStatus(context.Background(), "ghost", ChatStatusClosed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateChatAssignee(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", RoleSales)
	seedUser(t, store, "u2", RoleSales)
	seedChat(t, store, "c1", "u1")

	require.NoError(t, store.UpdateChatAssignee(ctx, "c1", "u2"))

	chat, err := store.GetChat(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "u2", chat.AssignedTo)
}

func TestStore_ClearUnread_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", RoleSales)
	seedChat(t, store, "c1", "u1")

	// Drive the counter up via incoming messages, then clear twice.
	for i := 0; i < 3; i++ {
		msg := &Message{
			ID:         fmt.Sprintf("m%d", i),
			ChatID:     "c1",
			SenderName: "Contact c1",
			Text:       "ping",
			Timestamp:  time.Now().UTC(),
			Status:     MessageStatusDelivered,
			Route:      RouteIncoming,
			Type:       MessageTypeText,
		}
		require.NoError(t, store.AppendMessage(ctx, msg))
	}

	chat, err := store.GetChat(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, chat.UnreadCount)

	require.NoError(t, store.ClearUnread(ctx, "c1"))
	require.NoError(t, store.ClearUnread(ctx, "c1"))

	chat, err = store.GetChat(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, chat.UnreadCount)
}

func TestStore_AppendMessage_UpdatesSummary(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", RoleSales)
	seedChat(t, store, "c1", "u1")

	sentAt := time.Date(2024, 8, 15, 10, 30, 0, 0, time.UTC)
	msg := &Message{
		ID:         "m1",
		ChatID:     "c1",
		SenderName: "You",
		Text:       "Hello",
		Timestamp:  sentAt,
		Status:     MessageStatusSent,
		Route:      RouteOutgoing,
		Type:       MessageTypeText,
	}
	require.NoError(t, store.AppendMessage(ctx, msg))

	chat, err := store.GetChat(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", chat.LastMessage)
	assert.Equal(t, sentAt, chat.LastMessageAt)
	// Outgoing messages never touch the unread counter
	assert.Equal(t, 0, chat.UnreadCount)
}

func TestStore_AppendMessage_UnknownChat(t *testing.T) {
	store := setupTestStore(t)

	msg := &Message{
		ID:         "m1",
		ChatID:     "ghost",
		SenderName: "You",
		Text:       "Hello",
		Timestamp:  time.Now(),
		Status:     MessageStatusSent,
		Route:      RouteOutgoing,
		Type:       MessageTypeText,
	}
	err := store.AppendMessage(context.Background(), msg)
	assert.ErrorIs(t, err, ErrNotFound)

	// Nothing half-applied: the message list stays empty
	messages, err := store.ListChatMessages(context.Background(), "ghost", 0)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestStore_ListChatMessages_Order(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", RoleSales)
	seedChat(t, store, "c1", "u1")
	seedChat(t, store, "c2", "u1")

	when := time.Date(2024, 8, 15, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		chatID := "c1"
		if i == 2 {
			chatID = "c2"
		}
		msg := &Message{
			ID:         fmt.Sprintf("m%d", i),
			ChatID:     chatID,
			SenderName: "You",
			Text:       fmt.Sprintf("message %d", i),
			Timestamp:  when, // identical timestamps; arrival order must still hold
			Status:     MessageStatusSent,
			Route:      RouteOutgoing,
			Type:       MessageTypeText,
		}
		require.NoError(t, store.AppendMessage(ctx, msg))
	}

	messages, err := store.ListChatMessages(ctx, "c1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, "m0", messages[0].ID)
	assert.Equal(t, "m1", messages[1].ID)
	assert.Equal(t, "m3", messages[2].ID)
	assert.Equal(t, "m4", messages[3].ID)
}

func TestStore_ListChats_Filter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", RoleSales)
	seedUser(t, store, "u2", RoleSales)
	seedChat(t, store, "c1", "u1")
	seedChat(t, store, "c2", "u2")
	seedChat(t, store, "c3", "u1")
	require.NoError(t, store.UpdateChatStatus(ctx, "c3", ChatStatusClosed))

	chats, err := store.ListChats(ctx, ChatFilter{AssignedTo: "u1"})
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "c1", chats[0].ID)
	assert.Equal(t, "c3", chats[1].ID)

	chats, err = store.ListChats(ctx, ChatFilter{AssignedTo: "u1", Status: ChatStatusClosed})
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "c3", chats[0].ID)
}

func TestStore_Instances(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", RoleAdmin)

	inst := &Instance{
		ID:         "i1",
		AdminID:    "u1",
		InstanceID: "inst_001",
		Token:      "waCRM_token_abcd1234",
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		Status:     InstanceStatusInactive,
	}
	require.NoError(t, store.CreateInstance(ctx, inst))
	assert.ErrorIs(t, store.CreateInstance(ctx, inst), ErrDuplicateInstance)

	byToken, err := store.GetInstanceByToken(ctx, "waCRM_token_abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "i1", byToken.ID)

	require.NoError(t, store.UpdateInstanceStatus(ctx, "i1", InstanceStatusActive))
	retrieved, err := store.GetInstance(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, InstanceStatusActive, retrieved.Status)

	require.NoError(t, store.DeleteInstance(ctx, "i1"))
	_, err = store.GetInstance(ctx, "i1")
	assert.ErrorIs(t, err, ErrNotFound)
}
