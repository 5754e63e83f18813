package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var errCiphertextTooShort = errors.New("ciphertext too short")

// aeadFor derives the AES-256-GCM cipher of one secret ID. Each ID gets its
// own key, expanded from the master key with the ID as HKDF salt.
func aeadFor(masterKey []byte, secretID string) (cipher.AEAD, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, []byte(secretID), nil), key); err != nil {
		return nil, fmt.Errorf("failed to derive key for %s: %w", secretID, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal encrypts plaintext and returns hex(nonce || ciphertext).
func seal(masterKey []byte, secretID, plaintext string) (string, error) {
	aead, err := aeadFor(masterKey, secretID)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	return hex.EncodeToString(aead.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

// open reverses seal.
func open(masterKey []byte, secretID, sealed string) (string, error) {
	data, err := hex.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	aead, err := aeadFor(masterKey, secretID)
	if err != nil {
		return "", err
	}
	if len(data) < aead.NonceSize() {
		return "", errCiphertextTooShort
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt %s: %w", secretID, err)
	}
	return string(plaintext), nil
}
