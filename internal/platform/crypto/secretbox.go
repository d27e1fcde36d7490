package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	keySize        = 32
	envelopeV1     = byte(1)
	additionalData = "messease/mfa-secret"
)

var (
	ErrNotConfigured = errors.New("secret box has no key")
	ErrMalformed     = errors.New("sealed value is malformed")
)

// Box seals short secrets (TOTP seeds) with AES-256-GCM. Sealed values carry a
// one byte version prefix followed by the nonce and ciphertext.
type Box struct {
	aead cipher.AEAD
}

// New builds a Box from DATA_ENCRYPTION_KEY. An empty key yields an unconfigured
// Box that refuses to seal or open anything.
func New(key string) (*Box, error) {
	if key == "" {
		return &Box{}, nil
	}
	decoded, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(decoded)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Box{aead: aead}, nil
}

func (b *Box) Configured() bool {
	return b != nil && b.aead != nil
}

func (b *Box) Seal(plain []byte) ([]byte, error) {
	if !b.Configured() {
		return nil, ErrNotConfigured
	}
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(nonce)+len(plain)+b.aead.Overhead())
	out = append(out, envelopeV1)
	out = append(out, nonce...)
	return b.aead.Seal(out, nonce, plain, []byte(additionalData)), nil
}

func (b *Box) Open(sealed []byte) ([]byte, error) {
	if !b.Configured() {
		return nil, ErrNotConfigured
	}
	ns := b.aead.NonceSize()
	if len(sealed) < 1+ns+b.aead.Overhead() || sealed[0] != envelopeV1 {
		return nil, ErrMalformed
	}
	nonce := sealed[1 : 1+ns]
	plain, err := b.aead.Open(nil, nonce, sealed[1+ns:], []byte(additionalData))
	if err != nil {
		return nil, fmt.Errorf("open sealed value: %w", err)
	}
	return plain, nil
}

func (b *Box) EncryptString(value string) ([]byte, error) {
	return b.Seal([]byte(value))
}

func (b *Box) DecryptString(value []byte) (string, error) {
	plain, err := b.Open(value)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// decodeKey accepts 64 hex chars, standard base64 (padded or not), or a raw
// 32 byte string.
func decodeKey(raw string) ([]byte, error) {
	candidates := []func(string) ([]byte, error){
		hex.DecodeString,
		base64.StdEncoding.DecodeString,
		base64.RawStdEncoding.DecodeString,
	}
	for _, decode := range candidates {
		if decoded, err := decode(raw); err == nil && len(decoded) == keySize {
			return decoded, nil
		}
	}
	if len(raw) == keySize {
		return []byte(raw), nil
	}
	return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must decode to %d bytes", keySize)
}
