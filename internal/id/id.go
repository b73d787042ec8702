// Package id generates opaque random identifiers and secrets with NanoID.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// passwordAlphabet drops look-alike characters (0/O, 1/l/I) so generated
// passwords can be read back from a terminal.
const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

// minPasswordLength matches the member password rule.
const minPasswordLength = 8

// Generate returns prefix + "-" + a 21 character NanoID, e.g. "tok-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Password returns a random password of the given length drawn from an
// unambiguous alphabet. Lengths below 8 are raised to 8.
func Password(length int) (string, error) {
	if length < minPasswordLength {
		length = minPasswordLength
	}
	pw, err := gonanoid.Generate(passwordAlphabet, length)
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return pw, nil
}
