package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("tok")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{"tok", "req", "import"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			require.True(t, strings.HasPrefix(id, prefix+"-"))
			nanoidPart := strings.TrimPrefix(id, prefix+"-")
			assert.Len(t, nanoidPart, 21)

			for _, char := range nanoidPart {
				assert.True(t,
					(char >= 'A' && char <= 'Z') ||
						(char >= 'a' && char <= 'z') ||
						(char >= '0' && char <= '9') ||
						char == '_' || char == '-',
					"Character %c should be URL-safe", char)
			}
		})
	}
}

func TestMustGenerate_Format(t *testing.T) {
	id := MustGenerate("tok")

	assert.True(t, strings.HasPrefix(id, "tok-"))
	assert.Equal(t, len("tok")+1+21, len(id))
}

func TestPassword(t *testing.T) {
	pw, err := Password(16)
	require.NoError(t, err)
	assert.Len(t, pw, 16)
	for _, char := range pw {
		assert.True(t, strings.ContainsRune(passwordAlphabet, char), "unexpected character %c", char)
	}
}

func TestPassword_MinimumLength(t *testing.T) {
	pw, err := Password(3)
	require.NoError(t, err)
	assert.Len(t, pw, minPasswordLength)
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Generate("bench")
	}
}
