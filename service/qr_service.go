package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdasg25/BioPass/core"
	"github.com/abdasg25/BioPass/ports"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

// methods recorded on session-authenticated events
const (
	MethodWebAuthn = "webauthn"
	MethodDevice   = "device"
)

// qrPayload is the JSON document embedded (encrypted) in the QR image.
type qrPayload struct {
	SessionKey string `json:"sessionKey"`
}

// CreatedSession is the result of creating a QR session.
type CreatedSession struct {
	SessionKey       string
	EncryptedPayload string
	QRImage          string // PNG data URI
}

// PollResult is the browser-facing state of a QR session.
type PollResult struct {
	Authenticated   bool
	UserID          string
	WebSessionToken string
}

// QRSessionService drives the cross-device QR login exchange: it creates
// sessions, renders them as encrypted QR payloads, advances a session to its
// terminal authenticated state exactly once, and answers poll requests.
type QRSessionService struct {
	sessions  ports.SessionStore
	users     ports.UserStore
	devices   ports.DeviceStore
	tokenizer ports.Tokenizer
	verifier  ports.AssertionVerifier
	cipher    ports.PayloadCipher
	qr        ports.QREncoder
	eventPub  ports.EventPublisher

	sessionTTL time.Duration
	now        func() time.Time
}

// NewQRSessionService creates a new QR session service
func NewQRSessionService(
	sessions ports.SessionStore,
	users ports.UserStore,
	devices ports.DeviceStore,
	tokenizer ports.Tokenizer,
	verifier ports.AssertionVerifier,
	cipher ports.PayloadCipher,
	qr ports.QREncoder,
	eventPub ports.EventPublisher,
) *QRSessionService {
	return &QRSessionService{
		sessions:   sessions,
		users:      users,
		devices:    devices,
		tokenizer:  tokenizer,
		verifier:   verifier,
		cipher:     cipher,
		qr:         qr,
		eventPub:   eventPub,
		sessionTTL: 5 * time.Minute,
		now:        time.Now,
	}
}

// CreateSession generates a new pending QR session and renders it as an
// encrypted QR payload. The raw session key goes back to the initiating
// browser only; the QR image carries the encrypted form.
func (s *QRSessionService) CreateSession(ctx context.Context) (*CreatedSession, error) {
	now := s.now()
	session := &core.QRSession{
		SessionKey: uuid.New().String(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.sessionTTL),
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	payload, err := json.Marshal(qrPayload{SessionKey: session.SessionKey})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	encrypted, err := s.cipher.Encrypt(payload)
	if err != nil {
		return nil, fmt.Errorf("encrypt payload: %w", err)
	}

	image, err := s.qr.DataURI(encrypted)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}

	return &CreatedSession{
		SessionKey:       session.SessionKey,
		EncryptedPayload: encrypted,
		QRImage:          image,
	}, nil
}

// DecryptSessionKey recovers the session key from a scanned QR payload.
func (s *QRSessionService) DecryptSessionKey(payload string) (string, error) {
	plaintext, err := s.cipher.Decrypt(payload)
	if err != nil {
		return "", err
	}

	var decoded qrPayload
	if err := json.Unmarshal(plaintext, &decoded); err != nil || decoded.SessionKey == "" {
		return "", core.ErrMalformedPayload
	}
	return decoded.SessionKey, nil
}

// Poll reports the current state of a session to the initiating browser.
// It never blocks and has no side effects while the session is pending; an
// expired record is deleted on first expired poll.
func (s *QRSessionService) Poll(ctx context.Context, sessionKey string) (*PollResult, error) {
	session, err := s.sessions.GetSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	if session.ExpiredAt(s.now()) {
		if err := s.sessions.DeleteSession(ctx, sessionKey); err != nil {
			slog.Warn("failed to delete expired session", "session_key", sessionKey, "error", err)
		}
		return nil, core.ErrSessionExpired
	}

	if session.Authenticated && session.AuthenticatedUserID != "" {
		return &PollResult{
			Authenticated:   true,
			UserID:          session.AuthenticatedUserID,
			WebSessionToken: session.WebSessionToken,
		}, nil
	}

	return &PollResult{Authenticated: false}, nil
}

// VerifyAndBind validates a WebAuthn assertion from the scanning device and,
// on success, moves the session to its terminal authenticated state: user
// bound, web session token minted, all in one guarded store write.
func (s *QRSessionService) VerifyAndBind(ctx context.Context, sessionKey string, assertionJSON []byte) error {
	session, err := s.sessions.GetSession(ctx, sessionKey)
	if err != nil {
		return err
	}
	if session.ExpiredAt(s.now()) {
		if err := s.sessions.DeleteSession(ctx, sessionKey); err != nil {
			slog.Warn("failed to delete expired session", "session_key", sessionKey, "error", err)
		}
		return core.ErrSessionExpired
	}
	if session.Authenticated {
		return core.ErrSessionAlreadyUsed
	}

	user, credential, err := s.verifier.Verify(assertionJSON, session.ChallengeOrKey(), func(credentialID string) (*core.User, error) {
		return s.users.GetUserByCredentialID(ctx, credentialID)
	})
	if err != nil {
		return err
	}

	// A signature counter that did not advance past the stored value marks
	// a possible cloned authenticator; the session stays pending.
	if credential.Authenticator.CloneWarning {
		return core.ErrPossibleCloneDetected
	}

	// Ratchet the stored counter before deciding the session. If the
	// session race is lost below, the advanced counter is still correct.
	if err := s.updateCredential(ctx, user, credential); err != nil {
		return fmt.Errorf("update credential: %w", err)
	}

	session.Authenticated = true
	session.AuthenticatedUserID = user.ID

	token, err := s.tokenizer.MintWebSessionToken(session)
	if err != nil {
		return fmt.Errorf("mint web session token: %w", err)
	}
	session.WebSessionToken = token

	won, err := s.sessions.UpdateIfPending(ctx, session)
	if err != nil {
		return fmt.Errorf("bind session: %w", err)
	}
	if !won {
		return core.ErrSessionAlreadyUsed
	}

	s.publishAuthenticated(ctx, session, MethodWebAuthn)
	return nil
}

// ActivateViaDevice approves a session through a registered device binding
// instead of a fresh WebAuthn ceremony. The caller is already authenticated
// at the transport layer.
func (s *QRSessionService) ActivateViaDevice(ctx context.Context, sessionKey, deviceID, email string) (string, error) {
	session, err := s.sessions.GetSession(ctx, sessionKey)
	if err != nil {
		return "", err
	}
	if session.ExpiredAt(s.now()) {
		return "", core.ErrSessionExpired
	}
	if session.Authenticated {
		return "", core.ErrSessionAlreadyUsed
	}

	if _, err := s.devices.GetDevice(ctx, deviceID); err != nil {
		return "", err
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	session.Authenticated = true
	session.AuthenticatedUserID = user.ID
	session.DeviceID = deviceID

	token, err := s.tokenizer.MintWebSessionToken(session)
	if err != nil {
		return "", fmt.Errorf("mint web session token: %w", err)
	}
	session.WebSessionToken = token

	won, err := s.sessions.UpdateIfPending(ctx, session)
	if err != nil {
		return "", fmt.Errorf("bind session: %w", err)
	}
	if !won {
		return "", core.ErrSessionAlreadyUsed
	}

	s.publishAuthenticated(ctx, session, MethodDevice)
	return token, nil
}

// RegisterDevice binds a device identifier to the account owning the email,
// replacing any previous binding for that account.
func (s *QRSessionService) RegisterDevice(ctx context.Context, email, deviceID string) (*core.Device, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	device := &core.Device{
		UserID:    user.ID,
		DeviceID:  deviceID,
		CreatedAt: s.now(),
	}
	if err := s.devices.UpsertDevice(ctx, device); err != nil {
		return nil, fmt.Errorf("register device: %w", err)
	}

	if err := s.eventPub.PublishDeviceRegistered(ctx, device); err != nil {
		// The binding is stored, which is the critical part.
		slog.Warn("failed to publish device registered event", "device_id", deviceID, "error", err)
	}

	return device, nil
}

// updateCredential persists the verified credential's advanced signature
// counter on the owning account.
func (s *QRSessionService) updateCredential(ctx context.Context, user *core.User, updated *webauthn.Credential) error {
	for i := range user.Credentials {
		if bytes.Equal(user.Credentials[i].ID, updated.ID) {
			user.Credentials[i] = *updated
			break
		}
	}
	user.UpdatedAt = s.now()
	return s.users.SaveUser(ctx, user)
}

func (s *QRSessionService) publishAuthenticated(ctx context.Context, session *core.QRSession, method string) {
	if err := s.eventPub.PublishSessionAuthenticated(ctx, session, method); err != nil {
		// The session is already bound in the store, which is the critical part.
		slog.Warn("failed to publish session authenticated event",
			"session_key", session.SessionKey, "method", method, "error", err)
	}
}
