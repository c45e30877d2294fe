// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user/chat/message/instance persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store and IdentityStore interfaces using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			role       TEXT NOT NULL,
			email      TEXT NOT NULL UNIQUE,
			secret     TEXT NOT NULL,
			created_at TEXT NOT NULL,

			CHECK (role IN ('admin', 'sales'))
		);

		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS chats (
			id              TEXT PRIMARY KEY,
			jid             TEXT NOT NULL UNIQUE,
			name            TEXT NOT NULL,
			last_message    TEXT NOT NULL DEFAULT '',
			last_message_at TEXT NOT NULL,
			unread_count    INTEGER NOT NULL DEFAULT 0,
			assigned_to     TEXT NOT NULL REFERENCES users(id),
			status          TEXT NOT NULL,
			notes           TEXT NOT NULL DEFAULT '',
			avatar          TEXT NOT NULL DEFAULT '',

			CHECK (status IN ('open', 'in-progress', 'closed')),
			CHECK (unread_count >= 0)
		);

		CREATE INDEX IF NOT EXISTS idx_chats_assigned ON chats(assigned_to);
		CREATE INDEX IF NOT EXISTS idx_chats_status ON chats(status);

		CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			chat_id     TEXT NOT NULL REFERENCES chats(id),
			sender_name TEXT NOT NULL,
			text        TEXT NOT NULL DEFAULT '',
			timestamp   TEXT NOT NULL,
			status      TEXT NOT NULL,
			route       TEXT NOT NULL,
			type        TEXT NOT NULL DEFAULT 'text',
			media_url   TEXT NOT NULL DEFAULT '',

			CHECK (status IN ('sent', 'delivered', 'read')),
			CHECK (route IN ('incoming', 'outgoing')),
			CHECK (type IN ('text', 'image', 'voice', 'document'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id);

		CREATE TABLE IF NOT EXISTS instances (
			id          TEXT PRIMARY KEY,
			admin_id    TEXT NOT NULL REFERENCES users(id),
			instance_id TEXT NOT NULL UNIQUE,
			token       TEXT NOT NULL UNIQUE,
			created_at  TEXT NOT NULL,
			status      TEXT NOT NULL,

			CHECK (status IN ('active', 'inactive'))
		);

		CREATE INDEX IF NOT EXISTS idx_instances_token ON instances(token);

		-- Durable identity slot: at most one row, holding the serialized
		-- logged-in user. Written on login, removed on logout.
		CREATE TABLE IF NOT EXISTS identity_slot (
			slot      INTEGER PRIMARY KEY CHECK (slot = 1),
			user_json TEXT NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// CreateUser inserts a new user.
// Returns ErrDuplicateUser if the id or email is already taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, name, role, email, secret, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Role,
		user.Email,
		user.Secret,
		user.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Debug("created user", "id", user.ID, "role", user.Role)
	return nil
}

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var user User
	var createdAtStr string

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Role,
		&user.Email,
		&user.Secret,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &user, nil
}

// GetUser retrieves a user by ID.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, name, role, email, secret, created_at
		FROM users
		WHERE id = ?
	`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email.
// Returns ErrNotFound if no user has that email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, name, role, email, secret, created_at
		FROM users
		WHERE email = ?
	`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

// UpdateUser replaces the mutable fields of an existing user.
// Returns ErrNotFound if the user doesn't exist, ErrDuplicateUser if the
// new email collides with another user.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = ?, role = ?, email = ?, secret = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		user.Name,
		user.Role,
		user.Email,
		user.Secret,
		user.ID,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("updating user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user.
// Returns ErrUserAssigned if any chat is still assigned to the user,
// ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	var assigned int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chats WHERE assigned_to = ?`, id).Scan(&assigned)
	if err != nil {
		return fmt.Errorf("counting assigned chats: %w", err)
	}
	if assigned > 0 {
		return ErrUserAssigned
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted user", "id", id)
	return nil
}

// ListUsers returns all users in creation order
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*User, error) {
	query := `
		SELECT id, name, role, email, secret, created_at
		FROM users
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CreateChat inserts a new chat.
// Returns ErrDuplicateChat if the id or jid already exists.
func (s *SQLiteStore) CreateChat(ctx context.Context, chat *Chat) error {
	query := `
		INSERT INTO chats (id, jid, name, last_message, last_message_at, unread_count, assigned_to, status, notes, avatar)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		chat.ID,
		chat.JID,
		chat.Name,
		chat.LastMessage,
		chat.LastMessageAt.UTC().Format(time.RFC3339),
		chat.UnreadCount,
		chat.AssignedTo,
		chat.Status,
		chat.Notes,
		chat.Avatar,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateChat
		}
		return fmt.Errorf("inserting chat: %w", err)
	}

	s.logger.Debug("created chat", "id", chat.ID, "jid", chat.JID)
	return nil
}

func scanChat(row interface{ Scan(...any) error }) (*Chat, error) {
	var chat Chat
	var lastMessageAtStr string

	err := row.Scan(
		&chat.ID,
		&chat.JID,
		&chat.Name,
		&chat.LastMessage,
		&lastMessageAtStr,
		&chat.UnreadCount,
		&chat.AssignedTo,
		&chat.Status,
		&chat.Notes,
		&chat.Avatar,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning chat: %w", err)
	}

	chat.LastMessageAt, err = time.Parse(time.RFC3339, lastMessageAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing last_message_at: %w", err)
	}
	return &chat, nil
}

const chatColumns = `id, jid, name, last_message, last_message_at, unread_count, assigned_to, status, notes, avatar`

// GetChat retrieves a chat by ID.
// Returns ErrNotFound if the chat doesn't exist.
func (s *SQLiteStore) GetChat(ctx context.Context, id string) (*Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = ?`
	return scanChat(s.db.QueryRowContext(ctx, query, id))
}

// ListChats returns chats in insertion order, optionally filtered by
// assignee and status.
func (s *SQLiteStore) ListChats(ctx context.Context, filter ChatFilter) ([]*Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats`
	var conds []string
	var args []any
	if filter.AssignedTo != "" {
		conds = append(conds, "assigned_to = ?")
		args = append(args, filter.AssignedTo)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rowid ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chats: %w", err)
	}
	defer rows.Close()

	var chats []*Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// UpdateChatStatus replaces the status of a chat. Any status may move to
// any other status. Returns ErrNotFound if the chat doesn't exist.
func (s *SQLiteStore) UpdateChatStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("updating chat status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Debug("updated chat status", "id", id, "status", status)
	return nil
}

// UpdateChatAssignee replaces the assignee of a chat.
// Returns ErrNotFound if the chat doesn't exist.
func (s *SQLiteStore) UpdateChatAssignee(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET assigned_to = ? WHERE id = ?`, userID, id)
	if err != nil {
		if isConstraintViolation(err) {
			// assigned_to references users(id)
			return ErrNotFound
		}
		return fmt.Errorf("updating chat assignee: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Debug("reassigned chat", "id", id, "assigned_to", userID)
	return nil
}

// ClearUnread resets a chat's unread counter to zero. Idempotent.
// Returns ErrNotFound if the chat doesn't exist.
func (s *SQLiteStore) ClearUnread(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET unread_count = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clearing unread count: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage inserts a message and updates the owning chat's
// last_message/last_message_at in the same transaction. Incoming messages
// additionally increment the chat's unread counter. This is the only writer
// of the denormalized summary fields.
// Returns ErrNotFound if the owning chat doesn't exist.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// The chat summary update doubles as the existence check: zero rows
	// affected means no such chat, and the rollback discards nothing.
	unreadDelta := 0
	if msg.Route == RouteIncoming {
		unreadDelta = 1
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE chats
		SET last_message = ?, last_message_at = ?, unread_count = unread_count + ?
		WHERE id = ?`,
		msg.Text,
		msg.Timestamp.UTC().Format(time.RFC3339),
		unreadDelta,
		msg.ChatID,
	)
	if err != nil {
		return fmt.Errorf("updating chat summary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender_name, text, timestamp, status, route, type, media_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID,
		msg.ChatID,
		msg.SenderName,
		msg.Text,
		msg.Timestamp.UTC().Format(time.RFC3339),
		msg.Status,
		msg.Route,
		msg.Type,
		msg.MediaURL,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing message append: %w", err)
	}

	s.logger.Debug("appended message",
		"id", msg.ID,
		"chat_id", msg.ChatID,
		"route", msg.Route)
	return nil
}

// InsertMessage inserts a message without touching the owning chat's
// summary or unread counter. Fixture loading uses this to keep seeded
// denormalized fields exactly as given; live traffic goes through
// AppendMessage.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender_name, text, timestamp, status, route, type, media_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID,
		msg.ChatID,
		msg.SenderName,
		msg.Text,
		msg.Timestamp.UTC().Format(time.RFC3339),
		msg.Status,
		msg.Route,
		msg.Type,
		msg.MediaURL,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// ListChatMessages returns the messages for a chat in arrival order.
// A limit of 0 means no limit.
func (s *SQLiteStore) ListChatMessages(ctx context.Context, chatID string, limit int) ([]*Message, error) {
	query := `
		SELECT id, chat_id, sender_name, text, timestamp, status, route, type, media_url
		FROM messages
		WHERE chat_id = ?
		ORDER BY rowid ASC
	`
	args := []any{chatID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var timestampStr string
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.SenderName,
			&msg.Text,
			&timestampStr,
			&msg.Status,
			&msg.Route,
			&msg.Type,
			&msg.MediaURL,
		); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.Timestamp, err = time.Parse(time.RFC3339, timestampStr)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// CreateInstance inserts a new instance.
// Returns ErrDuplicateInstance if the id, instance_id, or token collides.
func (s *SQLiteStore) CreateInstance(ctx context.Context, inst *Instance) error {
	query := `
		INSERT INTO instances (id, admin_id, instance_id, token, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		inst.ID,
		inst.AdminID,
		inst.InstanceID,
		inst.Token,
		inst.CreatedAt.UTC().Format(time.RFC3339),
		inst.Status,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateInstance
		}
		return fmt.Errorf("inserting instance: %w", err)
	}

	s.logger.Debug("created instance", "id", inst.ID, "instance_id", inst.InstanceID)
	return nil
}

func scanInstance(row interface{ Scan(...any) error }) (*Instance, error) {
	var inst Instance
	var createdAtStr string

	err := row.Scan(
		&inst.ID,
		&inst.AdminID,
		&inst.InstanceID,
		&inst.Token,
		&createdAtStr,
		&inst.Status,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning instance: %w", err)
	}

	inst.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &inst, nil
}

// GetInstance retrieves an instance by ID.
// Returns ErrNotFound if the instance doesn't exist.
func (s *SQLiteStore) GetInstance(ctx context.Context, id string) (*Instance, error) {
	query := `
		SELECT id, admin_id, instance_id, token, created_at, status
		FROM instances
		WHERE id = ?
	`
	return scanInstance(s.db.QueryRowContext(ctx, query, id))
}

// GetInstanceByToken retrieves an instance by its ingest token.
// Returns ErrNotFound if no instance has that token.
func (s *SQLiteStore) GetInstanceByToken(ctx context.Context, token string) (*Instance, error) {
	query := `
		SELECT id, admin_id, instance_id, token, created_at, status
		FROM instances
		WHERE token = ?
	`
	return scanInstance(s.db.QueryRowContext(ctx, query, token))
}

// UpdateInstanceStatus toggles an instance between active and inactive.
// Returns ErrNotFound if the instance doesn't exist.
func (s *SQLiteStore) UpdateInstanceStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE instances SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("updating instance status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInstance removes an instance.
// Returns ErrNotFound if the instance doesn't exist.
func (s *SQLiteStore) DeleteInstance(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM instances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting instance: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListInstances returns all instances in creation order
func (s *SQLiteStore) ListInstances(ctx context.Context) ([]*Instance, error) {
	query := `
		SELECT id, admin_id, instance_id, token, created_at, status
		FROM instances
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying instances: %w", err)
	}
	defer rows.Close()

	var instances []*Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}
