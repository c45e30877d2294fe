// ABOUTME: Sales-team management service for admin users
// ABOUTME: Create, edit, delete, and list CRM operators

package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zapdesk/zapdesk/internal/store"
)

// ErrInvalidParams marks a rejected create or update request
var ErrInvalidParams = errors.New("invalid operator parameters")

// UserStore defines what the service needs from storage
type UserStore interface {
	CreateUser(ctx context.Context, user *store.User) error
	GetUser(ctx context.Context, id string) (*store.User, error)
	UpdateUser(ctx context.Context, user *store.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]*store.User, error)
}

// Service manages the CRM operator roster
type Service struct {
	store  UserStore
	logger *slog.Logger
}

// New creates a directory service. Pass nil logger for the default.
func New(st UserStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		logger: logger.With("component", "directory"),
	}
}

// CreateParams holds the fields for a new operator
type CreateParams struct {
	Name   string
	Role   string
	Email  string
	Secret string
}

func (p *CreateParams) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidParams)
	}
	if !store.ValidRole(p.Role) {
		return fmt.Errorf("%w: invalid role %q", ErrInvalidParams, p.Role)
	}
	if !strings.Contains(p.Email, "@") {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidParams, p.Email)
	}
	if p.Secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidParams)
	}
	return nil
}

// Create adds a new operator with a generated ID.
// Returns store.ErrDuplicateUser when the email is taken.
func (s *Service) Create(ctx context.Context, p CreateParams) (*store.User, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	user := &store.User{
		ID:        uuid.New().String(),
		Name:      p.Name,
		Role:      p.Role,
		Email:     p.Email,
		Secret:    p.Secret,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("operator created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Update replaces an operator's profile fields. An empty secret keeps the
// existing credential. Returns store.ErrNotFound for an unknown id.
func (s *Service) Update(ctx context.Context, id string, p CreateParams) (*store.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Secret == "" {
		p.Secret = user.Secret
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	user.Name = p.Name
	user.Role = p.Role
	user.Email = p.Email
	user.Secret = p.Secret

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("operator updated", "user_id", id)
	return user, nil
}

// Delete removes an operator. Deletion is refused while chats are still
// assigned to them (store.ErrUserAssigned), keeping every chat's assignee
// pointing at an existing user.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("operator deleted", "user_id", id)
	return nil
}

// List returns all operators in creation order
func (s *Service) List(ctx context.Context) ([]*store.User, error) {
	return s.store.ListUsers(ctx)
}

// Get returns one operator by id
func (s *Service) Get(ctx context.Context, id string) (*store.User, error) {
	return s.store.GetUser(ctx, id)
}
