package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "battery staple"))
	assert.False(t, NeedsRehash(hash))

	again, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salts should differ")
}

func TestHashPassword_Rejects(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = HashPassword(strings.Repeat("a", maxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestVerifyPassword_Bcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(string(legacy), "password123"))
	assert.False(t, VerifyPassword(string(legacy), "password124"))
	assert.True(t, NeedsRehash(string(legacy)))
}

func TestVerifyPassword_Malformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3,p=4$onlysalt",
		"$argon2id$v=18$m=65536,t=3,p=4$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=3,p=4$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=3,p=4$!!!$a2V5",
	} {
		assert.False(t, VerifyPassword(encoded, "anything"), encoded)
	}
}

func TestVerifyPassword_TooLong(t *testing.T) {
	hash, err := HashPassword("short")
	require.NoError(t, err)
	assert.False(t, VerifyPassword(hash, strings.Repeat("a", maxPasswordLength+1)))
}
