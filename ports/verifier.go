package ports

import (
	"github.com/abdasg25/BioPass/core"
	"github.com/go-webauthn/webauthn/webauthn"
)

// CredentialLookup resolves the account owning a base64url-encoded
// credential ID. It returns core.ErrCredentialNotRegistered for unknown IDs.
type CredentialLookup func(credentialID string) (*core.User, error)

// AssertionVerifier validates a WebAuthn authentication assertion.
type AssertionVerifier interface {
	// Verify parses a transport-encoded assertion, resolves the owning user
	// through lookup, and checks the signature against the expected
	// challenge and the user's stored public key. On success it returns the
	// owning user and the credential with its updated signature counter.
	//
	// Error kinds are distinct by caller remedy: an unknown credential ID
	// surfaces core.ErrCredentialNotRegistered (register first), any other
	// failure core.ErrVerificationFailed (retry the ceremony).
	Verify(assertionJSON []byte, challenge string, lookup CredentialLookup) (*core.User, *webauthn.Credential, error)
}
