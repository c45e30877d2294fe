// Package conversation provides the inbox mutation layer.
//
// # Overview
//
// The Service sits between the HTTP handlers and the store, owning the
// consistency rules around chat summaries and unread counters:
//
//   - OpenChat(ctx, id): read a chat and its messages, clearing the unread
//     counter (the only decrement path)
//   - UpdateStatus(ctx, id, status): move between open / in-progress /
//     closed; every direction is allowed
//   - Reassign(ctx, id, userID): hand the chat to another operator
//   - SendMessage(ctx, id, text, type, sender): append an outgoing message
//     and refresh the chat summary atomically
//   - ReceiveMessage(ctx, ...): record an inbound message, incrementing
//     the unread counter (the only increment path)
//
// Unknown chat ids surface store.ErrNotFound rather than silently
// succeeding, and the HTTP layer maps that to 404.
//
// # Broadcasting
//
// Appended messages are published to a per-chat Broadcaster so connected
// dashboard clients can pick up new activity without polling:
//
//	ch, subID := svc.Subscribe(ctx, chatID)
//
// Delivery is best-effort; slow subscribers drop messages rather than
// blocking the mutation path.
package conversation
