// ABOUTME: Durable identity slot backed by a single-row SQLite table
// ABOUTME: Holds the serialized logged-in user so a session survives restart

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// persistedIdentity is the wire form of the identity slot, structurally
// equivalent to the User entity serialized as a flat record.
type persistedIdentity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveIdentity writes the user into the identity slot, replacing any
// previous occupant.
func (s *SQLiteStore) SaveIdentity(ctx context.Context, user *User) error {
	data, err := json.Marshal(persistedIdentity{
		ID:        user.ID,
		Name:      user.Name,
		Role:      user.Role,
		Email:     user.Email,
		Secret:    user.Secret,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("serializing identity: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO identity_slot (slot, user_json) VALUES (1, ?)
		ON CONFLICT(slot) DO UPDATE SET user_json = excluded.user_json`,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("writing identity slot: %w", err)
	}

	s.logger.Debug("identity persisted", "user_id", user.ID)
	return nil
}

// LoadIdentity reads the identity slot. Returns ErrNotFound when the slot
// is empty. A slot that fails to parse is treated as empty (fail closed)
// rather than surfacing a startup error.
func (s *SQLiteStore) LoadIdentity(ctx context.Context) (*User, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_json FROM identity_slot WHERE slot = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading identity slot: %w", err)
	}

	var p persistedIdentity
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		s.logger.Warn("identity slot is malformed, treating as empty", "error", err)
		return nil, ErrNotFound
	}

	return &User{
		ID:        p.ID,
		Name:      p.Name,
		Role:      p.Role,
		Email:     p.Email,
		Secret:    p.Secret,
		CreatedAt: p.CreatedAt,
	}, nil
}

// ClearIdentity empties the identity slot. Idempotent.
func (s *SQLiteStore) ClearIdentity(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM identity_slot`); err != nil {
		return fmt.Errorf("clearing identity slot: %w", err)
	}
	return nil
}
