package ports

import "github.com/abdasg25/BioPass/core"

// Tokenizer converts between domain objects and bearer tokens
type Tokenizer interface {
	// MintWebSessionToken issues the short-lived token returned to the
	// browser polling an authenticated QR session. The session must already
	// carry the authenticated user id.
	MintWebSessionToken(session *core.QRSession) (string, error)

	// Login token operations (signup/login and bearer-protected endpoints)
	MintLoginToken(user *core.User) (string, error)
	ParseLoginToken(token string) (*core.Identity, error)
}
