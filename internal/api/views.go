// ABOUTME: JSON view types for API responses
// ABOUTME: Maps store entities onto the wire format, omitting credentials

package api

import (
	"time"

	"github.com/zapdesk/zapdesk/internal/store"
)

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserView(u *store.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Role:      u.Role,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toUserViews(users []*store.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, toUserView(u))
	}
	return out
}

type chatView struct {
	ID            string    `json:"id"`
	JID           string    `json:"jid"`
	Name          string    `json:"name"`
	LastMessage   string    `json:"lastMessage"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	UnreadCount   int       `json:"unreadCount"`
	AssignedTo    string    `json:"assignedTo"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
}

func toChatView(c *store.Chat) chatView {
	return chatView{
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
	}
}

func toChatViews(chats []*store.Chat) []chatView {
	out := make([]chatView, 0, len(chats))
	for _, c := range chats {
		out = append(out, toChatView(c))
	}
	return out
}

type messageView struct {
	ID         string    `json:"id"`
	ChatID     string    `json:"chatId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status"`
	Route      string    `json:"route"`
	Type       string    `json:"type"`
	MediaURL   string    `json:"mediaUrl,omitempty"`
}

func toMessageView(m *store.Message) messageView {
	return messageView{
		ID:         m.ID,
		ChatID:     m.ChatID,
		SenderName: m.SenderName,
		Text:       m.Text,
		Timestamp:  m.Timestamp,
		Status:     m.Status,
		Route:      m.Route,
		Type:       m.Type,
		MediaURL:   m.MediaURL,
	}
}

func toMessageViews(msgs []*store.Message) []messageView {
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageView(m))
	}
	return out
}

type instanceView struct {
	ID         string    `json:"id"`
	AdminID    string    `json:"adminId"`
	InstanceID string    `json:"instanceId"`
	Token      string    `json:"token"`
	CreatedAt  time.Time `json:"createdAt"`
	Status     string    `json:"status"`
}

func toInstanceView(i *store.Instance) instanceView {
	return instanceView{
		ID:         i.ID,
		AdminID:    i.AdminID,
		InstanceID: i.InstanceID,
		Token:      i.Token,
		CreatedAt:  i.CreatedAt,
		Status:     i.Status,
	}
}

func toInstanceViews(instances []*store.Instance) []instanceView {
	out := make([]instanceView, 0, len(instances))
	for _, i := range instances {
		out = append(out, toInstanceView(i))
	}
	return out
}
