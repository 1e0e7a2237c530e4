package store

import (
	"context"
	"sync"

	"github.com/abdasg25/BioPass/core"
)

// MemoryStore is an in-memory implementation of the session, user and device
// stores. It is a single-process stand-in for the Redis store; records are
// not expired in the background, callers rely on lazy expiry checks.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]core.QRSession
	users    map[string]core.User
	byEmail  map[string]string
	byName   map[string]string
	byCred   map[string]string
	devices  map[string]core.Device
	byOwner  map[string]string // userID -> deviceID
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]core.QRSession),
		users:    make(map[string]core.User),
		byEmail:  make(map[string]string),
		byName:   make(map[string]string),
		byCred:   make(map[string]string),
		devices:  make(map[string]core.Device),
		byOwner:  make(map[string]string),
	}
}

// CreateSession persists a new QR session.
func (s *MemoryStore) CreateSession(ctx context.Context, session *core.QRSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.SessionKey] = *session
	return nil
}

// GetSession loads a QR session by key.
func (s *MemoryStore) GetSession(ctx context.Context, sessionKey string) (*core.QRSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionKey]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return &session, nil
}

// UpdateIfPending writes the session only while the stored record is still
// unauthenticated, and reports whether the write won.
func (s *MemoryStore) UpdateIfPending(ctx context.Context, session *core.QRSession) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[session.SessionKey]
	if !ok {
		return false, core.ErrSessionNotFound
	}
	if current.Authenticated {
		return false, nil
	}

	s.sessions[session.SessionKey] = *session
	return true, nil
}

// DeleteSession removes a QR session.
func (s *MemoryStore) DeleteSession(ctx context.Context, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionKey)
	return nil
}

// CreateUser persists a new account.
func (s *MemoryStore) CreateUser(ctx context.Context, user *core.User) error {
	return s.SaveUser(ctx, user)
}

// GetUser loads an account by id.
func (s *MemoryStore) GetUser(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(id)
}

func (s *MemoryStore) userLocked(id string) (*core.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return &user, nil
}

// GetUserByEmail resolves an account by email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return s.userLocked(id)
}

// GetUserByUsername resolves an account by username.
func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return s.userLocked(id)
}

// GetUserByCredentialID resolves the account owning a WebAuthn credential.
func (s *MemoryStore) GetUserByCredentialID(ctx context.Context, credentialID string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCred[credentialID]
	if !ok {
		return nil, core.ErrCredentialNotRegistered
	}
	return s.userLocked(id)
}

// SaveUser writes the account record and refreshes its indexes.
func (s *MemoryStore) SaveUser(ctx context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.ID] = *user
	if user.Email != "" {
		s.byEmail[user.Email] = user.ID
	}
	if user.Username != "" {
		s.byName[user.Username] = user.ID
	}
	for _, cred := range user.Credentials {
		s.byCred[encodeCredentialID(cred.ID)] = user.ID
	}
	return nil
}

// UpsertDevice registers a device binding, replacing any previous device
// held by the same account.
func (s *MemoryStore) UpsertDevice(ctx context.Context, device *core.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, ok := s.byOwner[device.UserID]; ok && previous != device.DeviceID {
		delete(s.devices, previous)
	}
	s.devices[device.DeviceID] = *device
	s.byOwner[device.UserID] = device.DeviceID
	return nil
}

// GetDevice loads a device binding by device id.
func (s *MemoryStore) GetDevice(ctx context.Context, deviceID string) (*core.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	device, ok := s.devices[deviceID]
	if !ok {
		return nil, core.ErrDeviceNotRegistered
	}
	return &device, nil
}
