// Package auth provides password hashing and access token handling.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// KeySize is the symmetric key length for both HS256 and PASETO v4.local.
	KeySize    = 32
	keyHexSize = 2 * KeySize

	keyFileName = "auth.key"
)

// DecodeKey decodes a 64 character hex key.
func DecodeKey(keyHex string) ([]byte, error) {
	keyHex = strings.TrimSpace(keyHex)
	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("auth key must be %d hex characters, got %d", keyHexSize, len(keyHex))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("auth key is not valid hex: %w", err)
	}
	return key, nil
}

// LoadOrGenerateKey returns the signing key stored in <dataPath>/auth.key,
// creating the file with a random key on first use.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	keyPath := filepath.Join(dataPath, keyFileName)

	//#nosec G304 -- path is derived from the configured data directory
	if raw, err := os.ReadFile(keyPath); err == nil {
		key, err := DecodeKey(string(raw))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", keyPath, err)
		}
		return key, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", keyPath, err)
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("save auth key: %w", err)
	}
	return key, nil
}
