// Package sealbox encrypts small secrets, such as user API keys, before they
// are written to the database.
package sealbox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	ErrEmptySecret = errors.New("sealbox: secret must not be empty")
	ErrMalformed   = errors.New("sealbox: malformed sealed value")
	ErrTampered    = errors.New("sealbox: sealed value failed authentication")
)

// Box seals and opens values with a key derived from a server secret.
type Box struct {
	key [32]byte
}

// New derives the box key from secret.
func New(secret string) (*Box, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Box{key: sha256.Sum256([]byte(secret))}, nil
}

// Seal returns base64(nonce || ciphertext).
func (b *Box) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("sealbox: failed to read nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (b *Box) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrMalformed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrTampered
	}
	return string(plain), nil
}
