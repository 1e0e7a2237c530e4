package core

import "errors"

var (
	ErrSessionNotFound         = errors.New("session not found")
	ErrSessionExpired          = errors.New("session has expired")
	ErrSessionAlreadyUsed      = errors.New("session already authenticated")
	ErrMalformedPayload        = errors.New("malformed payload")
	ErrDecryptionFailed        = errors.New("payload decryption failed")
	ErrCredentialNotRegistered = errors.New("credential not registered")
	ErrVerificationFailed      = errors.New("verification failed")
	ErrPossibleCloneDetected   = errors.New("authenticator counter did not advance")
	ErrDeviceNotRegistered     = errors.New("device not registered")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrEmailAlreadyRegistered  = errors.New("email already registered")
	ErrUsernameTaken           = errors.New("username already taken")
	ErrInvalidToken            = errors.New("invalid token")
	ErrTokenExpired            = errors.New("token has expired")
)
