package verifier

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/abdasg25/BioPass/core"
	"github.com/abdasg25/BioPass/ports"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// WebAuthnVerifier validates authentication assertions with go-webauthn.
// The session challenge takes the place of a per-ceremony challenge: the
// approving device signs the challenge carried by the QR session.
type WebAuthnVerifier struct {
	web *webauthn.WebAuthn
}

// New creates a verifier scoped to the given relying party.
func New(rpID, rpDisplayName string, rpOrigins []string) (*WebAuthnVerifier, error) {
	web, err := webauthn.New(&webauthn.Config{
		RPID:          rpID,
		RPDisplayName: rpDisplayName,
		RPOrigins:     rpOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("configure webauthn: %w", err)
	}
	return &WebAuthnVerifier{web: web}, nil
}

// Verify implements ports.AssertionVerifier.
func (v *WebAuthnVerifier) Verify(assertionJSON []byte, challenge string, lookup ports.CredentialLookup) (*core.User, *webauthn.Credential, error) {
	parsed, err := protocol.ParseCredentialRequestResponseBody(bytes.NewReader(assertionJSON))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse assertion: %v", core.ErrVerificationFailed, err)
	}

	user, err := lookup(base64.RawURLEncoding.EncodeToString(parsed.RawID))
	if err != nil {
		return nil, nil, err
	}

	session := webauthn.SessionData{
		// Client and server both treat the challenge string's raw bytes as
		// the ceremony challenge.
		Challenge: base64.RawURLEncoding.EncodeToString([]byte(challenge)),
		UserID:    user.WebAuthnID(),
	}

	credential, err := v.web.ValidateLogin(user, session, parsed)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrVerificationFailed, err)
	}

	return user, credential, nil
}
