// ABOUTME: Dashboard statistics over chats, users, and instances
// ABOUTME: Computes the overview counters and per-agent workload breakdowns

package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zapdesk/zapdesk/internal/store"
)

// StatsStore defines what the service needs from storage
type StatsStore interface {
	ListChats(ctx context.Context, filter store.ChatFilter) ([]*store.Chat, error)
	ListUsers(ctx context.Context) ([]*store.User, error)
	ListInstances(ctx context.Context) ([]*store.Instance, error)
}

// Service computes dashboard aggregates
type Service struct {
	store  StatsStore
	logger *slog.Logger
}

// New creates a metrics service. Pass nil logger for the default.
func New(st StatsStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		logger: logger.With("component", "metrics"),
	}
}

// AgentLoad is one sales user's share of the inbox
type AgentLoad struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Chats  int    `json:"chats"`
	Unread int    `json:"unread"`
}

// Dashboard is the overview snapshot rendered by the CRM home screen
type Dashboard struct {
	TotalChats      int            `json:"totalChats"`
	SalesUsers      int            `json:"salesUsers"`
	UnreadMessages  int            `json:"unreadMessages"`
	ActiveInstances int            `json:"activeInstances"`
	ChatsByStatus   map[string]int `json:"chatsByStatus"`
	ChatsByUser     []AgentLoad    `json:"chatsByUser"`
}

// Snapshot computes the current dashboard numbers
func (s *Service) Snapshot(ctx context.Context) (*Dashboard, error) {
	chats, err := s.store.ListChats(ctx, store.ChatFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	instances, err := s.store.ListInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing instances: %w", err)
	}

	d := &Dashboard{
		TotalChats: len(chats),
		ChatsByStatus: map[string]int{
			store.ChatStatusOpen:       0,
			store.ChatStatusInProgress: 0,
			store.ChatStatusClosed:     0,
		},
	}

	perUserChats := make(map[string]int)
	perUserUnread := make(map[string]int)
	for _, chat := range chats {
		d.UnreadMessages += chat.UnreadCount
		d.ChatsByStatus[chat.Status]++
		perUserChats[chat.AssignedTo]++
		perUserUnread[chat.AssignedTo] += chat.UnreadCount
	}

	for _, inst := range instances {
		if inst.Status == store.InstanceStatusActive {
			d.ActiveInstances++
		}
	}

	for _, user := range users {
		if user.Role != store.RoleSales {
			continue
		}
		d.SalesUsers++
		d.ChatsByUser = append(d.ChatsByUser, AgentLoad{
			UserID: user.ID,
			Name:   user.Name,
			Chats:  perUserChats[user.ID],
			Unread: perUserUnread[user.ID],
		})
	}

	return d, nil
}
