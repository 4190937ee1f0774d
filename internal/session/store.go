package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pkg/errors"
)

// SecretSource provides named secrets. Satisfied by secrets.Fetcher.
type SecretSource interface {
	Get(ctx context.Context, name string) (string, error)
}

// Manager persists and retrieves session records.
type Manager struct {
	db         *gorm.DB
	ttl        time.Duration
	secrets    SecretSource
	secretName string

	// cookieKey caches the derived sealing key; the secret is fetched at
	// most once per manager even under concurrent first access.
	cookieKey struct {
		mu  sync.Mutex
		key string
	}

	// now is replaceable for expiry tests.
	now func() time.Time
}

// NewManager creates a session manager on top of the given database.
func NewManager(db *gorm.DB, ttl time.Duration, secrets SecretSource, secretName string) *Manager {
	return &Manager{
		db:         db,
		ttl:        ttl,
		secrets:    secrets,
		secretName: secretName,
		now:        time.Now,
	}
}

// Create persists a fresh record bound to the given state token and returns it.
func (m *Manager) Create(ctx context.Context, state string) (*Record, error) {
	rec := &Record{
		SessionID: uuid.NewString(),
		State:     state,
		ExpiresAt: m.now().Add(m.ttl),
		Tokens:    map[string]TokenSet{},
	}

	if err := m.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, &StorageError{Op: "create", Err: err}
	}

	return rec, nil
}

// Get returns the record for the given session ID.
//
// A record whose expiry has passed is treated identically to an absent one:
// both return ErrSessionNotFound. Callers must not retry that rejection,
// it is final for the session.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Record, error) {
	var rec Record

	err := m.db.WithContext(ctx).First(&rec, "session_id = ?", sessionID).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrSessionNotFound
	case err != nil:
		return nil, &StorageError{Op: "get", Err: err}
	}

	if rec.Expired(m.now()) {
		return nil, ErrSessionNotFound
	}

	return &rec, nil
}

// Update overwrites the full record keyed by its session ID.
//
// This is a whole-row put, not a merge. Updates are last-writer-wins with
// no optimistic concurrency control; concurrent callbacks racing on the
// same session ID overwrite each other.
func (m *Manager) Update(ctx context.Context, rec *Record) error {
	if err := m.db.WithContext(ctx).Save(rec).Error; err != nil {
		return &StorageError{Op: "update", Err: err}
	}

	return nil
}

// Delete removes the record for the given session ID (explicit logout).
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	if err := m.db.WithContext(ctx).Delete(&Record{}, "session_id = ?", sessionID).Error; err != nil {
		return &StorageError{Op: "delete", Err: err}
	}

	return nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
