// ABOUTME: Store interface and data types for zapdesk persistence
// ABOUTME: Defines User, Chat, Message, Instance structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateUser is returned when creating a user whose email is already taken
var ErrDuplicateUser = errors.New("user already exists")

// ErrDuplicateChat is returned when creating a chat whose id or jid already exists
var ErrDuplicateChat = errors.New("chat already exists")

// ErrDuplicateInstance is returned when creating an instance whose id or token already exists
var ErrDuplicateInstance = errors.New("instance already exists")

// ErrUserAssigned is returned when deleting a user that still has chats assigned
var ErrUserAssigned = errors.New("user still has chats assigned")

// Role constants for user access tiers
const (
	RoleAdmin = "admin" // Full access including team and instance management
	RoleSales = "sales" // Inbox access for assigned conversations
)

// User represents a CRM operator (admin or sales agent)
type User struct {
	ID        string
	Name      string
	Role      string // "admin" or "sales"
	Email     string
	Secret    string // Plaintext credential; placeholder scheme, not production auth
	CreatedAt time.Time
}

// ChatStatus constants. All six transitions between the three states are
// permitted; closed chats can be reopened.
const (
	ChatStatusOpen       = "open"
	ChatStatusInProgress = "in-progress"
	ChatStatusClosed     = "closed"
)

// Chat represents a single contact's conversation thread.
//
// LastMessage and LastMessageAt are denormalized from the message list and
// must only be written together with a message append (see AppendMessage).
// UnreadCount is driven only by inbound message arrival and explicit read
// events, never by status or assignment edits.
type Chat struct {
	ID            string
	JID           string // External contact identifier, e.g. "5511999999999@c.us"
	Name          string
	LastMessage   string
	LastMessageAt time.Time
	UnreadCount   int
	AssignedTo    string // User ID of the handling agent
	Status        string // "open", "in-progress", "closed"
	Notes         string
	Avatar        string
}

// Message delivery status constants
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

// Message route constants
const (
	RouteIncoming = "incoming"
	RouteOutgoing = "outgoing"
)

// Message content type constants
const (
	MessageTypeText     = "text"
	MessageTypeImage    = "image"
	MessageTypeVoice    = "voice"
	MessageTypeDocument = "document"
)

// Message represents a single communication event within a chat.
// Messages are append-only: identity and ordering position are fixed at
// creation, and the store never reorders or deletes them.
type Message struct {
	ID         string
	ChatID     string
	SenderName string
	Text       string
	Timestamp  time.Time
	Status     string // "sent", "delivered", "read"
	Route      string // "incoming", "outgoing"
	Type       string // "text", "image", "voice", "document"
	MediaURL   string
}

// Instance status constants
const (
	InstanceStatusActive   = "active"
	InstanceStatusInactive = "inactive"
)

// Instance represents a logical WhatsApp channel connection credential
type Instance struct {
	ID         string
	AdminID    string
	InstanceID string // Human-readable identifier, e.g. "inst_001"
	Token      string // Opaque ingest credential
	CreatedAt  time.Time
	Status     string // "active" or "inactive"
}

// ChatFilter narrows ListChats results. Zero value matches everything.
type ChatFilter struct {
	AssignedTo string // Only chats assigned to this user ID
	Status     string // Only chats with this status
}

// Store defines the interface for CRM persistence
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]*User, error)

	// Chats
	CreateChat(ctx context.Context, chat *Chat) error
	GetChat(ctx context.Context, id string) (*Chat, error)
	ListChats(ctx context.Context, filter ChatFilter) ([]*Chat, error)
	UpdateChatStatus(ctx context.Context, id, status string) error
	UpdateChatAssignee(ctx context.Context, id, userID string) error
	ClearUnread(ctx context.Context, id string) error

	// Messages. AppendMessage inserts the message and updates the owning
	// chat's last-message summary in a single transaction; incoming messages
	// additionally increment the chat's unread counter.
	AppendMessage(ctx context.Context, msg *Message) error
	ListChatMessages(ctx context.Context, chatID string, limit int) ([]*Message, error)

	// Instances
	CreateInstance(ctx context.Context, inst *Instance) error
	GetInstance(ctx context.Context, id string) (*Instance, error)
	GetInstanceByToken(ctx context.Context, token string) (*Instance, error)
	UpdateInstanceStatus(ctx context.Context, id, status string) error
	DeleteInstance(ctx context.Context, id string) error
	ListInstances(ctx context.Context) ([]*Instance, error)

	// Close releases any resources held by the store
	Close() error
}

// IdentityStore holds the durable identity slot: a single entry with the
// serialized logged-in user, written on login and removed on logout.
type IdentityStore interface {
	SaveIdentity(ctx context.Context, user *User) error
	// LoadIdentity returns ErrNotFound when no identity is persisted. A
	// malformed slot is treated the same way (fail closed), never an error
	// that would prevent startup.
	LoadIdentity(ctx context.Context) (*User, error)
	ClearIdentity(ctx context.Context) error
}

// ValidStatus reports whether s is a known chat status
func ValidStatus(s string) bool {
	switch s {
	case ChatStatusOpen, ChatStatusInProgress, ChatStatusClosed:
		return true
	}
	return false
}

// ValidRole reports whether r is a known user role
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleSales
}

// ValidMessageType reports whether t is a known message content type
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVoice, MessageTypeDocument:
		return true
	}
	return false
}
