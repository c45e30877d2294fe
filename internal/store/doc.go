// Package store provides persistent storage for zapdesk using SQLite.
//
// # Architecture
//
// Two interfaces cover the persistence surface:
//
//   - Store: users, chats, messages, and instances
//   - IdentityStore: the durable identity slot for the logged-in session
//
// SQLiteStore implements both in a single struct.
//
// # Data Models
//
//   - User: CRM operator with role "admin" or "sales"
//   - Chat: contact conversation thread with status, assignee, and a
//     denormalized last-message summary
//   - Message: append-only communication event owned by one chat
//   - Instance: WhatsApp channel connection credential
//
// # Invariants
//
// A chat's last_message/last_message_at always mirror its most recently
// appended message: AppendMessage is the only writer of those fields and
// updates them in the same transaction as the insert. unread_count moves
// only on incoming-message arrival (incremented inside AppendMessage) and
// on explicit read events (ClearUnread). Every message references an
// existing chat and every chat references an existing user; both are
// enforced with foreign keys.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: requested entity does not exist
//   - ErrDuplicateUser / ErrDuplicateChat / ErrDuplicateInstance: unique
//     constraint collisions
//   - ErrUserAssigned: user deletion blocked by assigned chats
//
// All methods accept context.Context for cancellation support.
package store
