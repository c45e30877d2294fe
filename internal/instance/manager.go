// ABOUTME: WhatsApp instance connection manager
// ABOUTME: Creates instances with pairing tokens, QR codes, and connect/disconnect lifecycle

package instance

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/zapdesk/zapdesk/internal/store"
)

// tokenPrefix marks ingest tokens issued by this deployment
const tokenPrefix = "waCRM_token_"

// qrSize is the pixel size of generated pairing QR codes
const qrSize = 256

// InstanceStore defines what the manager needs from storage
type InstanceStore interface {
	CreateInstance(ctx context.Context, inst *store.Instance) error
	GetInstance(ctx context.Context, id string) (*store.Instance, error)
	GetInstanceByToken(ctx context.Context, token string) (*store.Instance, error)
	UpdateInstanceStatus(ctx context.Context, id, status string) error
	DeleteInstance(ctx context.Context, id string) error
	ListInstances(ctx context.Context) ([]*store.Instance, error)
}

// Manager handles the WhatsApp instance lifecycle
type Manager struct {
	store  InstanceStore
	logger *slog.Logger
}

// New creates an instance manager. Pass nil logger for the default.
func New(st InstanceStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  st,
		logger: logger.With("component", "instance"),
	}
}

// newToken generates an opaque ingest credential
func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return tokenPrefix + hex.EncodeToString(buf), nil
}

// Create registers a new instance owned by the given admin. The instance
// starts inactive; Connect activates it after the pairing QR is scanned.
func (m *Manager) Create(ctx context.Context, adminID string) (*store.Instance, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	existing, err := m.store.ListInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing instances: %w", err)
	}

	// Suffixes are never reused, so ids stay unique across deletions
	next := 1
	for _, other := range existing {
		var n int
		if _, err := fmt.Sscanf(other.InstanceID, "inst_%d", &n); err == nil && n >= next {
			next = n + 1
		}
	}

	inst := &store.Instance{
		ID:         uuid.New().String(),
		AdminID:    adminID,
		InstanceID: fmt.Sprintf("inst_%03d", next),
		Token:      token,
		CreatedAt:  time.Now().UTC(),
		Status:     store.InstanceStatusInactive,
	}
	if err := m.store.CreateInstance(ctx, inst); err != nil {
		return nil, err
	}

	m.logger.Info("instance created", "id", inst.ID, "instance_id", inst.InstanceID)
	return inst, nil
}

// PairingQR renders the instance's pairing payload as a PNG QR code for the
// connect dialog. Returns store.ErrNotFound for an unknown instance.
func (m *Manager) PairingQR(ctx context.Context, id string) ([]byte, error) {
	inst, err := m.store.GetInstance(ctx, id)
	if err != nil {
		return nil, err
	}

	payload := fmt.Sprintf("zapdesk://pair?instance=%s&token=%s", inst.InstanceID, inst.Token)
	png, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encoding pairing QR: %w", err)
	}
	return png, nil
}

// Connect marks an instance active, confirming the pairing handshake
func (m *Manager) Connect(ctx context.Context, id string) error {
	if err := m.store.UpdateInstanceStatus(ctx, id, store.InstanceStatusActive); err != nil {
		return err
	}
	m.logger.Info("instance connected", "id", id)
	return nil
}

// Disconnect marks an instance inactive
func (m *Manager) Disconnect(ctx context.Context, id string) error {
	if err := m.store.UpdateInstanceStatus(ctx, id, store.InstanceStatusInactive); err != nil {
		return err
	}
	m.logger.Info("instance disconnected", "id", id)
	return nil
}

// Delete removes an instance and invalidates its ingest token
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.DeleteInstance(ctx, id); err != nil {
		return err
	}
	m.logger.Info("instance deleted", "id", id)
	return nil
}

// List returns all instances in creation order
func (m *Manager) List(ctx context.Context) ([]*store.Instance, error) {
	return m.store.ListInstances(ctx)
}

// Authenticate resolves an ingest token to its instance. Only active
// instances may ingest; an inactive instance's token is rejected.
func (m *Manager) Authenticate(ctx context.Context, token string) (*store.Instance, error) {
	inst, err := m.store.GetInstanceByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inst.Status != store.InstanceStatusActive {
		return nil, fmt.Errorf("instance %s is not connected", inst.InstanceID)
	}
	return inst, nil
}
