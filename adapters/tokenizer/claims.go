package tokenizer

import "github.com/golang-jwt/jwt/v5"

// WebSessionClaims combines standard claims with the web-session marker the
// polling browser presents after a QR login.
type WebSessionClaims struct {
	jwt.RegisteredClaims
	Web      bool   `json:"web"`
	DeviceID string `json:"did,omitempty"` // approving device, device-trust path only
}

// LoginClaims combines standard claims with account identity
type LoginClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}
