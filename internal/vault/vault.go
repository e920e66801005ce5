// Package vault encrypts integration credentials at rest using AES-256-GCM
// with a key derived from the server-side encryption secret via scrypt.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// ErrCrypto is returned on malformed payloads or authentication failure
// (tampering or wrong key). Decryption never returns corrupted plaintext.
var ErrCrypto = errors.New("vault: decrypt failed")

const (
	// keySalt is fixed: the vault key is per-deployment, not per-tenant.
	// Scrypt parameters are Node's scryptSync defaults so payloads written
	// by earlier deployments derive the same key and stay readable.
	keySalt  = "integration_salt"
	keyLen   = 32
	scryptN  = 16384
	scryptR  = 8
	scryptP  = 1
	nonceLen = 16
)

// Vault holds the derived AES-256 key. Construct once at startup and inject;
// key derivation is deliberately slow.
type Vault struct {
	aead cipher.AEAD
}

// New derives the AES-256-GCM key from secret via scrypt and returns a Vault.
// secret must be non-empty; it is never stored.
func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, errors.New("vault: encryption secret is required")
	}
	key, err := scrypt.Key([]byte(secret), []byte(keySalt), scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("vault: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceLen)
	if err != nil {
		return nil, fmt.Errorf("vault: gcm: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// Encrypt returns an opaque payload "nonceHex:tagHex:cipherHex" with a fresh
// random nonce per call. The three parts are independently recoverable on decrypt.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: nonce: %w", err)
	}
	sealed := v.aead.Seal(nil, nonce, []byte(plaintext), nil)
	// Seal appends the tag to the ciphertext; split so the stored layout is
	// nonce:tag:ciphertext.
	tagStart := len(sealed) - v.aead.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Returns ErrCrypto on malformed payloads or when
// the authentication tag does not verify.
func (v *Vault) Decrypt(payload string) (string, error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 3 {
		return "", ErrCrypto
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceLen {
		return "", ErrCrypto
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != v.aead.Overhead() {
		return "", ErrCrypto
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrCrypto
	}
	plaintext, err := v.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrCrypto
	}
	return string(plaintext), nil
}
