// Package ticket renders booking confirmation artifacts. The QR code
// is a presentation-layer concern: it is generated after the booking
// transaction has committed, and a generation failure is reported as a
// warning, never as a booking failure.
package ticket

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"github.com/skip2/go-qrcode"
)

// Payload is the snapshot encoded into the confirmation QR. It copies
// the values at booking time so the code stays valid even if the event
// is later edited.
type Payload struct {
	BookingID   uint64    `json:"booking_id"`
	EventID     uint64    `json:"event_id"`
	EventTitle  string    `json:"event_title"`
	UserID      uint64    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Quantity    int       `json:"quantity"`
	TotalAmount int64     `json:"total_amount"`
	EventDate   time.Time `json:"event_date"`
	Location    string    `json:"location"`
	BookingDate time.Time `json:"booking_date"`
}

// Generator produces scannable confirmation codes. The payload is AES
// encrypted so gate scanners holding the secret can verify a code was
// issued by this service.
type Generator struct {
	secret []byte
}

// NewGenerator normalizes the secret to a 32-byte AES key.
func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret))
	return &Generator{secret: hashed[:]}
}

// DataURL returns the confirmation QR as a base64 PNG data URL ready
// for an <img> tag.
func (g *Generator) DataURL(p Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sealed, err := encryptAES(raw, g.secret)
	if err != nil {
		return "", err
	}
	png, err := qrcode.Encode(sealed, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Decode reverses DataURL's payload encryption. Used by scanner-side
// verification and by tests.
func (g *Generator) Decode(sealed string) (Payload, error) {
	var p Payload
	raw, err := decryptAES(sealed, g.secret)
	if err != nil {
		return p, err
	}
	err = json.Unmarshal(raw, &p)
	return p, err
}

func encryptAES(data, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}
	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(sealed string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, io.ErrUnexpectedEOF
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)
	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])
	return data, nil
}
