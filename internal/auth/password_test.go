package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher()

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "secret1"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"unicode password", "密码123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)
			require.NoError(t, err)

			assert.NotEqual(t, tt.password, hash)
			assert.True(t, hasher.Verify(tt.password, hash))
			assert.False(t, hasher.Verify(tt.password+"x", hash))

			cost, err := bcrypt.Cost([]byte(hash))
			require.NoError(t, err)
			assert.Equal(t, BcryptCost, cost)
		})
	}
}

func TestPasswordHasher_Salted(t *testing.T) {
	hasher := NewPasswordHasher()

	first, err := hasher.Hash("secret1")
	require.NoError(t, err)
	second, err := hasher.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	assert.False(t, NewPasswordHasher().Verify("secret1", "not-a-bcrypt-hash"))
	assert.False(t, NewPasswordHasher().Verify("secret1", ""))
}

func TestPasswordHasher_TooLong(t *testing.T) {
	_, err := NewPasswordHasher().Hash(strings.Repeat("a", 73))
	assert.Error(t, err)
}
