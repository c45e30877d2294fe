// ABOUTME: Seed fixture loading and validation
// ABOUTME: Parses YAML fixtures, checks referential integrity, and loads them into the store

package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zapdesk/zapdesk/internal/store"
)

// Fixture is a complete startup dataset
type Fixture struct {
	Users     []UserFixture     `yaml:"users"`
	Chats     []ChatFixture     `yaml:"chats"`
	Messages  []MessageFixture  `yaml:"messages"`
	Instances []InstanceFixture `yaml:"instances"`
}

// UserFixture mirrors store.User in YAML form
type UserFixture struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Role      string    `yaml:"role"`
	Email     string    `yaml:"email"`
	Secret    string    `yaml:"secret"`
	CreatedAt time.Time `yaml:"created_at"`
}

// ChatFixture mirrors store.Chat in YAML form
type ChatFixture struct {
	ID            string    `yaml:"id"`
	JID           string    `yaml:"jid"`
	Name          string    `yaml:"name"`
	LastMessage   string    `yaml:"last_message"`
	LastMessageAt time.Time `yaml:"last_message_at"`
	UnreadCount   int       `yaml:"unread_count"`
	AssignedTo    string    `yaml:"assigned_to"`
	Status        string    `yaml:"status"`
	Notes         string    `yaml:"notes"`
	Avatar        string    `yaml:"avatar"`
}

// MessageFixture mirrors store.Message in YAML form
type MessageFixture struct {
	ID         string    `yaml:"id"`
	ChatID     string    `yaml:"chat_id"`
	SenderName string    `yaml:"sender_name"`
	Text       string    `yaml:"text"`
	Timestamp  time.Time `yaml:"timestamp"`
	Status     string    `yaml:"status"`
	Route      string    `yaml:"route"`
	Type       string    `yaml:"type"`
	MediaURL   string    `yaml:"media_url"`
}

// InstanceFixture mirrors store.Instance in YAML form
type InstanceFixture struct {
	ID         string    `yaml:"id"`
	AdminID    string    `yaml:"admin_id"`
	InstanceID string    `yaml:"instance_id"`
	Token      string    `yaml:"token"`
	CreatedAt  time.Time `yaml:"created_at"`
	Status     string    `yaml:"status"`
}

// Load reads a fixture file and validates it
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture file: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture file: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validating fixture: %w", err)
	}
	return &f, nil
}

// Validate checks the relationship invariants: every message references an
// existing chat, every chat's assignee references an existing user, and
// every instance's admin references an existing admin user.
func (f *Fixture) Validate() error {
	users := make(map[string]string, len(f.Users)) // id -> role
	for _, u := range f.Users {
		if !store.ValidRole(u.Role) {
			return fmt.Errorf("user %s: invalid role %q", u.ID, u.Role)
		}
		if _, dup := users[u.ID]; dup {
			return fmt.Errorf("duplicate user id %s", u.ID)
		}
		users[u.ID] = u.Role
	}

	chats := make(map[string]bool, len(f.Chats))
	for _, c := range f.Chats {
		if !store.ValidStatus(c.Status) {
			return fmt.Errorf("chat %s: invalid status %q", c.ID, c.Status)
		}
		if c.UnreadCount < 0 {
			return fmt.Errorf("chat %s: negative unread count", c.ID)
		}
		if _, ok := users[c.AssignedTo]; !ok {
			return fmt.Errorf("chat %s: assignee %q is not a known user", c.ID, c.AssignedTo)
		}
		if chats[c.ID] {
			return fmt.Errorf("duplicate chat id %s", c.ID)
		}
		chats[c.ID] = true
	}

	for _, m := range f.Messages {
		if !chats[m.ChatID] {
			return fmt.Errorf("message %s: chat %q is not a known chat", m.ID, m.ChatID)
		}
		if !store.ValidMessageType(m.Type) {
			return fmt.Errorf("message %s: invalid type %q", m.ID, m.Type)
		}
	}

	for _, i := range f.Instances {
		role, ok := users[i.AdminID]
		if !ok {
			return fmt.Errorf("instance %s: admin %q is not a known user", i.ID, i.AdminID)
		}
		if role != store.RoleAdmin {
			return fmt.Errorf("instance %s: owner %q is not an admin", i.ID, i.AdminID)
		}
	}

	return nil
}

// SeedStore is the storage surface fixture loading needs. InsertMessage
// bypasses the summary bookkeeping so seeded chats keep the exact
// last-message and unread values the fixture specifies.
type SeedStore interface {
	CreateUser(ctx context.Context, user *store.User) error
	CreateChat(ctx context.Context, chat *store.Chat) error
	InsertMessage(ctx context.Context, msg *store.Message) error
	CreateInstance(ctx context.Context, inst *store.Instance) error
}

// Apply inserts the fixture into the store. Users and chats go in first so
// foreign keys hold; messages are inserted directly (not appended) to keep
// the fixture's denormalized summaries and unread counts exactly as given.
func Apply(ctx context.Context, f *Fixture, st SeedStore, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "seed")

	for _, u := range f.Users {
		if err := st.CreateUser(ctx, &store.User{
			ID:        u.ID,
			Name:      u.Name,
			Role:      u.Role,
			Email:     u.Email,
			Secret:    u.Secret,
			CreatedAt: u.CreatedAt,
		}); err != nil {
			return fmt.Errorf("seeding user %s: %w", u.ID, err)
		}
	}

	for _, c := range f.Chats {
		if err := st.CreateChat(ctx, &store.Chat{
			ID:            c.ID,
			JID:           c.JID,
			Name:          c.Name,
			LastMessage:   c.LastMessage,
			LastMessageAt: c.LastMessageAt,
			UnreadCount:   c.UnreadCount,
			AssignedTo:    c.AssignedTo,
			Status:        c.Status,
			Notes:         c.Notes,
			Avatar:        c.Avatar,
		}); err != nil {
			return fmt.Errorf("seeding chat %s: %w", c.ID, err)
		}
	}

	for _, m := range f.Messages {
		if err := st.InsertMessage(ctx, &store.Message{
			ID:         m.ID,
			ChatID:     m.ChatID,
			SenderName: m.SenderName,
			Text:       m.Text,
			Timestamp:  m.Timestamp,
			Status:     m.Status,
			Route:      m.Route,
			Type:       m.Type,
			MediaURL:   m.MediaURL,
		}); err != nil {
			return fmt.Errorf("seeding message %s: %w", m.ID, err)
		}
	}

	for _, i := range f.Instances {
		if err := st.CreateInstance(ctx, &store.Instance{
			ID:         i.ID,
			AdminID:    i.AdminID,
			InstanceID: i.InstanceID,
			Token:      i.Token,
			CreatedAt:  i.CreatedAt,
			Status:     i.Status,
		}); err != nil {
			return fmt.Errorf("seeding instance %s: %w", i.ID, err)
		}
	}

	logger.Info("fixture applied",
		"users", len(f.Users),
		"chats", len(f.Chats),
		"messages", len(f.Messages),
		"instances", len(f.Instances))
	return nil
}
