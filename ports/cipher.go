package ports

// PayloadCipher encrypts the session key carried inside the QR image. The QR
// code is a public, photographable channel; only the server holds the key.
type PayloadCipher interface {
	Encrypt(plaintext []byte) (string, error)
	// Decrypt returns core.ErrMalformedPayload when the framing is broken
	// and core.ErrDecryptionFailed when the ciphertext does not authenticate.
	Decrypt(payload string) ([]byte, error)
}

// QREncoder renders a payload string as a QR image.
type QREncoder interface {
	// DataURI returns the QR bitmap as an image data URI.
	DataURI(payload string) (string, error)
}
