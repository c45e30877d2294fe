// ABOUTME: Session manager holding the authenticated identity
// ABOUTME: Login by exact credential match, durable slot persistence, restore on start

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/zapdesk/zapdesk/internal/store"
)

// UserLookup defines what the manager needs to resolve credentials
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	GetUser(ctx context.Context, id string) (*store.User, error)
}

// Manager holds at most one authenticated identity and keeps the durable
// identity slot in sync with it. Concurrent HTTP handlers may read the
// current identity, so access is guarded.
type Manager struct {
	mu      sync.RWMutex
	current *store.User

	users  UserLookup
	slot   store.IdentityStore
	logger *slog.Logger
}

// New creates a session manager. Pass nil logger for the default.
func New(users UserLookup, slot store.IdentityStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		users:  users,
		slot:   slot,
		logger: logger.With("component", "session"),
	}
}

// Login authenticates by exact match on email and secret. When roleHint is
// non-empty the matched user's role must equal it. On success the identity
// becomes current, is written to the durable slot, and is returned to the
// caller; on failure the state is unchanged and nil is returned.
//
// Callers must use the returned user rather than re-reading Current: a
// concurrent login can replace the current identity at any time.
//
// The secret comparison is exact-string equality: a placeholder credential
// scheme, not production auth.
func (m *Manager) Login(ctx context.Context, email, secret, roleHint string) *store.User {
	user, err := m.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Error("credential lookup failed", "error", err)
		}
		return nil
	}
	if user.Secret != secret {
		return nil
	}
	if roleHint != "" && user.Role != roleHint {
		return nil
	}

	if err := m.slot.SaveIdentity(ctx, user); err != nil {
		// The login still succeeds; only restart persistence is degraded.
		m.logger.Error("failed to persist identity", "error", err, "user_id", user.ID)
	}

	m.mu.Lock()
	m.current = user
	m.mu.Unlock()

	m.logger.Info("login", "user_id", user.ID, "role", user.Role)
	return user
}

// Logout clears the current identity and removes the persisted copy.
// Idempotent: logging out without a session is a no-op.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.slot.ClearIdentity(ctx); err != nil {
		m.logger.Error("failed to clear identity slot", "error", err)
	}

	m.logger.Info("logout")
}

// RestoreOnStart adopts a previously persisted identity, if any. The
// restored identity is re-validated against the live user collection: a
// slot referencing a deleted user, or one that fails to parse, is treated
// as no identity (fail closed) and cleared.
func (m *Manager) RestoreOnStart(ctx context.Context) {
	persisted, err := m.slot.LoadIdentity(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Error("failed to read identity slot", "error", err)
		}
		return
	}

	live, err := m.users.GetUser(ctx, persisted.ID)
	if err != nil {
		m.logger.Warn("persisted identity no longer valid, discarding",
			"user_id", persisted.ID)
		if err := m.slot.ClearIdentity(ctx); err != nil {
			m.logger.Error("failed to clear stale identity slot", "error", err)
		}
		return
	}

	m.mu.Lock()
	m.current = live
	m.mu.Unlock()

	m.logger.Info("session restored", "user_id", live.ID, "role", live.Role)
}

// Current returns the authenticated identity, or nil
func (m *Manager) Current() *store.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsAuthenticated reports whether an identity is present
func (m *Manager) IsAuthenticated() bool {
	return m.Current() != nil
}
