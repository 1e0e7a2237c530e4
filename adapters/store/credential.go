package store

import "encoding/base64"

// encodeCredentialID matches the wire encoding of WebAuthn credential IDs.
func encodeCredentialID(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}
