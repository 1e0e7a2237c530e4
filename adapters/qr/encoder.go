package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// PNGEncoder renders payloads as PNG QR codes wrapped in a data URI, ready
// to drop into an <img> tag.
type PNGEncoder struct {
	size int
}

// NewPNGEncoder creates an encoder producing square images of the given
// pixel size.
func NewPNGEncoder(size int) *PNGEncoder {
	return &PNGEncoder{size: size}
}

// DataURI encodes the payload as a QR bitmap.
func (e *PNGEncoder) DataURI(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, e.size)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
