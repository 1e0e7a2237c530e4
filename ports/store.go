package ports

import (
	"context"

	"github.com/abdasg25/BioPass/core"
)

// SessionStore persists QR sessions. Implementations must expire records at
// QRSession.ExpiresAt; callers additionally delete lazily on expired access.
type SessionStore interface {
	CreateSession(ctx context.Context, session *core.QRSession) error
	// GetSession returns core.ErrSessionNotFound when the key is absent.
	GetSession(ctx context.Context, sessionKey string) (*core.QRSession, error)
	// UpdateIfPending writes the session only while the stored record is
	// still unauthenticated, and reports whether the write won. The pending
	// to authenticated transition must go through this guard.
	UpdateIfPending(ctx context.Context, session *core.QRSession) (bool, error)
	DeleteSession(ctx context.Context, sessionKey string) error
}

// UserStore persists accounts and their WebAuthn credentials.
type UserStore interface {
	CreateUser(ctx context.Context, user *core.User) error
	// GetUser returns core.ErrUserNotFound when the id is unknown.
	GetUser(ctx context.Context, id string) (*core.User, error)
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)
	GetUserByUsername(ctx context.Context, username string) (*core.User, error)
	// GetUserByCredentialID resolves the account owning a credential by its
	// base64url-encoded credential ID. Returns core.ErrCredentialNotRegistered
	// when no account holds it.
	GetUserByCredentialID(ctx context.Context, credentialID string) (*core.User, error)
	SaveUser(ctx context.Context, user *core.User) error
}

// DeviceStore persists device-to-account bindings.
type DeviceStore interface {
	// UpsertDevice registers the binding, replacing any previous device
	// registered for the same account.
	UpsertDevice(ctx context.Context, device *core.Device) error
	// GetDevice returns core.ErrDeviceNotRegistered when the id is unknown.
	GetDevice(ctx context.Context, deviceID string) (*core.Device, error)
}
