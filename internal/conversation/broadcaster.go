// ABOUTME: In-memory fan-out broadcaster for appended messages
// ABOUTME: Publishes persisted messages to all subscribers of a chat

package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/zapdesk/zapdesk/internal/store"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// Broadcaster provides in-memory pub/sub for persisted messages.
// Subscribers register for a chat ID and receive messages as they are
// appended, so dashboard clients see new activity without polling.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan *store.Message // chatID -> subID -> ch
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]map[string]chan *store.Message),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber for messages on the given chat.
// Returns a channel that receives messages and a subscription ID for later
// unsubscription. The subscription is automatically cleaned up when ctx is
// cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, chatID string) (<-chan *store.Message, string) {
	subID := uuid.New().String()
	ch := make(chan *store.Message, subscriberBufferSize)

	b.mu.Lock()
	if _, ok := b.subscribers[chatID]; !ok {
		b.subscribers[chatID] = make(map[string]chan *store.Message)
	}
	b.subscribers[chatID][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "chat_id", chatID, "sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		b.Unsubscribe(chatID, subID)
	}()

	return ch, subID
}

// Publish sends a message to all subscribers of the given chat.
// Non-blocking: messages are dropped for subscribers whose channels are full.
func (b *Broadcaster) Publish(chatID string, msg *store.Message) {
	b.mu.RLock()
	subs, ok := b.subscribers[chatID]
	if !ok || len(subs) == 0 {
		b.mu.RUnlock()
		return
	}

	// Copy subscriber channels under read lock to avoid holding lock during sends
	targets := make([]chan *store.Message, 0, len(subs))
	for _, ch := range subs {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- msg:
			// Sent
		default:
			b.logger.Debug("dropped message for slow subscriber",
				"chat_id", chatID,
				"message_id", msg.ID)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(chatID, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[chatID]
	if !ok {
		return
	}

	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)

	if len(subs) == 0 {
		delete(b.subscribers, chatID)
	}

	b.logger.Debug("subscriber removed", "chat_id", chatID, "sub_id", subID)
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for chatID, subs := range b.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(b.subscribers, chatID)
	}

	b.logger.Debug("broadcaster closed")
}
