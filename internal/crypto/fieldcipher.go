// Package crypto implements application-level field encryption with
// AES-256-GCM. Task descriptions are encrypted before they reach the
// database and decrypted on the way out; the database only ever sees
// ciphertext, nonce and tag as base64 strings.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"

	"github.com/iliyamo/secure-task-manager/internal/apperr"
)

const (
	nonceSize = 12 // 96-bit GCM nonce, fresh per encryption
	tagSize   = 16 // 128-bit authentication tag
)

// ErrDecrypt is returned for every decryption failure: tampered ciphertext,
// tampered nonce or tag, or a wrong key. The cause is deliberately not
// distinguished.
var ErrDecrypt = errors.New("crypto: decryption failed")

// EncryptedField holds the three base64-encoded parts stored alongside a
// record. The tag is kept separate from the ciphertext to match the storage
// schema.
type EncryptedField struct {
	CipherText string
	IV         string
	Tag        string
}

// FieldCipher encrypts and decrypts string fields under a single static
// 256-bit key. Safe for concurrent use. There is no key rotation and no
// per-record derivation; losing or changing the key renders previously
// encrypted fields permanently undecryptable.
type FieldCipher struct {
	gcm cipher.AEAD
}

// NewFieldCipher builds a FieldCipher from a hex-encoded key. The key must
// be exactly 64 hex characters (32 bytes); anything else is a configuration
// error.
func NewFieldCipher(hexKey string) (*FieldCipher, error) {
	if hexKey == "" {
		return nil, apperr.Config("Encryption key not configured")
	}
	if len(hexKey) != 64 {
		return nil, apperr.Config("Encryption key must be 64 hex characters")
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, apperr.Config("Encryption key must be valid hex")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &FieldCipher{gcm: gcm}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns the
// ciphertext, nonce and tag base64-encoded for storage.
func (fc *FieldCipher) Encrypt(plaintext string) (EncryptedField, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return EncryptedField{}, err
	}
	sealed := fc.gcm.Seal(nil, nonce, []byte(plaintext), nil)
	// Seal appends the tag to the ciphertext; split it off for storage.
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]
	return EncryptedField{
		CipherText: base64.StdEncoding.EncodeToString(ct),
		IV:         base64.StdEncoding.EncodeToString(nonce),
		Tag:        base64.StdEncoding.EncodeToString(tag),
	}, nil
}

// Decrypt reverses Encrypt. Any failure, including malformed base64 or a tag
// mismatch, yields ErrDecrypt; partially decrypted data is never returned.
func (fc *FieldCipher) Decrypt(cipherText, iv, tag string) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return "", ErrDecrypt
	}
	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil || len(nonce) != nonceSize {
		return "", ErrDecrypt
	}
	tagBytes, err := base64.StdEncoding.DecodeString(tag)
	if err != nil || len(tagBytes) != tagSize {
		return "", ErrDecrypt
	}
	plaintext, err := fc.gcm.Open(nil, nonce, append(ct, tagBytes...), nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
