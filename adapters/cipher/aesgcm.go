package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/abdasg25/BioPass/core"
)

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

// AESGCM is a PayloadCipher backed by AES-256-GCM. Payloads are framed as
// "nonceHex:cipherHex" with a fresh random nonce per call.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM builds a payload cipher from a raw 256-bit key.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("payload cipher key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

// Encrypt seals the plaintext under a fresh nonce.
func (c *AESGCM) Encrypt(plaintext []byte) (string, error) {
	// GCM requires a unique nonce per encryption under the same key.
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	ciphertext := c.aead.Seal(nil, nonce, plaintext, nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens a previously encrypted payload. Any tampering with the
// ciphertext fails authentication; it never yields garbage plaintext.
func (c *AESGCM) Decrypt(payload string) ([]byte, error) {
	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 {
		return nil, core.ErrMalformedPayload
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return nil, core.ErrMalformedPayload
	}
	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, core.ErrMalformedPayload
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, core.ErrDecryptionFailed
	}
	return plaintext, nil
}
