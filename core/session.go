package core

import (
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// QRSession represents one cross-device login exchange. It is created by the
// browser that displays the QR code, approved by a mobile device, and polled
// by the browser until it turns authenticated or expires.
type QRSession struct {
	SessionKey          string    // Random key identifying the exchange
	CreatedAt           time.Time // When the session was created
	ExpiresAt           time.Time // Hard expiry; the session is gone after this
	Authenticated       bool      // Set exactly once, by the approving device
	AuthenticatedUserID string    // Account that approved the session
	DeviceID            string    // Approving device, device-trust path only
	WebSessionToken     string    // Token handed to the polling browser
	Challenge           string    // WebAuthn challenge bound to this session
}

// ExpiredAt reports whether the session is past its expiry at the given time.
func (s *QRSession) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// ChallengeOrKey returns the WebAuthn challenge for this session, falling
// back to the session key when no explicit challenge was set.
func (s *QRSession) ChallengeOrKey() string {
	if s.Challenge != "" {
		return s.Challenge
	}
	return s.SessionKey
}

// Device binds a mobile device identifier to an account. A registered device
// may approve QR sessions without a fresh WebAuthn ceremony.
type Device struct {
	UserID    string    // Owning account
	DeviceID  string    // Device identifier supplied by the mobile client
	CreatedAt time.Time // When the binding was registered
}

// User is an account with optional WebAuthn credentials.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Credentials  []webauthn.Credential
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the subject carried by a parsed bearer token.
type Identity struct {
	UserID   string
	Email    string
	Username string
}

// WebAuthnID implements webauthn.User.
func (u *User) WebAuthnID() []byte {
	return []byte(u.ID)
}

// WebAuthnName implements webauthn.User.
func (u *User) WebAuthnName() string {
	return u.Username
}

// WebAuthnDisplayName implements webauthn.User.
func (u *User) WebAuthnDisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// WebAuthnIcon implements older revisions of webauthn.User.
func (u *User) WebAuthnIcon() string {
	return ""
}

// WebAuthnCredentials implements webauthn.User.
func (u *User) WebAuthnCredentials() []webauthn.Credential {
	return u.Credentials
}
