// ABOUTME: Service is the central mutation layer for chats and messages
// ABOUTME: All inbox actions flow through here so summary fields stay consistent

package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zapdesk/zapdesk/internal/store"
)

// defaultSender is the canonical agent label used when no operator name is
// supplied for an outgoing message.
const defaultSender = "You"

// ConversationStore defines what the service needs from storage
type ConversationStore interface {
	GetChat(ctx context.Context, id string) (*store.Chat, error)
	ListChats(ctx context.Context, filter store.ChatFilter) ([]*store.Chat, error)
	UpdateChatStatus(ctx context.Context, id, status string) error
	UpdateChatAssignee(ctx context.Context, id, userID string) error
	ClearUnread(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, msg *store.Message) error
	ListChatMessages(ctx context.Context, chatID string, limit int) ([]*store.Message, error)
	GetUser(ctx context.Context, id string) (*store.User, error)
}

// Service coordinates inbox operations over the conversation store and
// publishes appended messages to broadcast subscribers.
type Service struct {
	store       ConversationStore
	broadcaster *Broadcaster
	logger      *slog.Logger
}

// New creates a conversation service. Pass nil logger for the default.
func New(st ConversationStore, broadcaster *Broadcaster, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       st,
		broadcaster: broadcaster,
		logger:      logger.With("component", "conversation"),
	}
}

// ChatView is a chat together with its ordered message history
type ChatView struct {
	Chat     *store.Chat
	Messages []*store.Message
}

// OpenChat focuses a chat for reading: it returns the chat with its messages
// and, when the unread counter is positive, resets it to zero. This is the
// only path that decrements the unread count. Opening an already-read chat
// changes nothing.
func (s *Service) OpenChat(ctx context.Context, chatID string) (*ChatView, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if chat.UnreadCount > 0 {
		if err := s.store.ClearUnread(ctx, chatID); err != nil {
			return nil, fmt.Errorf("clearing unread count: %w", err)
		}
		chat.UnreadCount = 0
		s.logger.Debug("chat marked read", "chat_id", chatID)
	}

	messages, err := s.store.ListChatMessages(ctx, chatID, 0)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}

	return &ChatView{Chat: chat, Messages: messages}, nil
}

// UpdateStatus replaces a chat's status. Any of the three statuses may move
// to any other; closed chats can be reopened. Returns store.ErrNotFound for
// an unknown chat and an error for an unknown status value.
func (s *Service) UpdateStatus(ctx context.Context, chatID, status string) error {
	if !store.ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	if err := s.store.UpdateChatStatus(ctx, chatID, status); err != nil {
		return err
	}
	s.logger.Info("chat status updated", "chat_id", chatID, "status", status)
	return nil
}

// Reassign hands a chat to another user. The target must exist; both sales
// agents and admins may act as assignees. Returns store.ErrNotFound when
// either the chat or the user is unknown.
func (s *Service) Reassign(ctx context.Context, chatID, userID string) error {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return fmt.Errorf("resolving assignee: %w", err)
	}
	if err := s.store.UpdateChatAssignee(ctx, chatID, userID); err != nil {
		return err
	}
	s.logger.Info("chat reassigned", "chat_id", chatID, "assigned_to", userID)
	return nil
}

// SendMessage appends an outgoing message to a chat. The message is created
// with a fresh UUID, status "sent", and the current time; the owning chat's
// last-message summary is updated in the same store transaction. Outgoing
// messages never change the unread counter.
//
// sender is the display name of the acting operator; empty falls back to
// the canonical agent label. msgType empty defaults to "text".
func (s *Service) SendMessage(ctx context.Context, chatID, text, msgType, sender string) (*store.Message, error) {
	if msgType == "" {
		msgType = store.MessageTypeText
	}
	if !store.ValidMessageType(msgType) {
		return nil, fmt.Errorf("invalid message type %q", msgType)
	}
	if sender == "" {
		sender = defaultSender
	}

	msg := &store.Message{
		ID:         uuid.New().String(),
		ChatID:     chatID,
		SenderName: sender,
		Text:       text,
		Timestamp:  time.Now().UTC(),
		Status:     store.MessageStatusSent,
		Route:      store.RouteOutgoing,
		Type:       msgType,
	}

	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.logger.Debug("message sent",
		"chat_id", chatID,
		"message_id", msg.ID,
		"type", msgType)

	s.publish(msg)
	return msg, nil
}

// ReceiveMessage records an inbound message from the messaging channel.
// The store transaction appends the message, refreshes the chat summary,
// and increments the unread counter; this is the only increment path.
func (s *Service) ReceiveMessage(ctx context.Context, chatID, senderName, text, msgType, mediaURL string) (*store.Message, error) {
	if msgType == "" {
		msgType = store.MessageTypeText
	}
	if !store.ValidMessageType(msgType) {
		return nil, fmt.Errorf("invalid message type %q", msgType)
	}

	msg := &store.Message{
		ID:         uuid.New().String(),
		ChatID:     chatID,
		SenderName: senderName,
		Text:       text,
		Timestamp:  time.Now().UTC(),
		Status:     store.MessageStatusDelivered,
		Route:      store.RouteIncoming,
		Type:       msgType,
		MediaURL:   mediaURL,
	}

	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.logger.Debug("message received",
		"chat_id", chatID,
		"message_id", msg.ID,
		"sender", senderName)

	s.publish(msg)
	return msg, nil
}

// ListChats returns chats in insertion order, optionally filtered
func (s *Service) ListChats(ctx context.Context, filter store.ChatFilter) ([]*store.Chat, error) {
	return s.store.ListChats(ctx, filter)
}

// ChatMessages returns a chat's messages in arrival order without touching
// the unread counter. Use OpenChat for the read path.
func (s *Service) ChatMessages(ctx context.Context, chatID string, limit int) ([]*store.Message, error) {
	if _, err := s.store.GetChat(ctx, chatID); err != nil {
		return nil, err
	}
	return s.store.ListChatMessages(ctx, chatID, limit)
}

// Subscribe registers for messages appended to the given chat
func (s *Service) Subscribe(ctx context.Context, chatID string) (<-chan *store.Message, string) {
	return s.broadcaster.Subscribe(ctx, chatID)
}

func (s *Service) publish(msg *store.Message) {
	if s.broadcaster != nil {
		s.broadcaster.Publish(msg.ChatID, msg)
	}
}
