package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!pass", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "Str0ng!pass", hash)

	assert.NoError(t, ComparePassword(hash, "Str0ng!pass"))
	assert.Error(t, ComparePassword(hash, "Wrong1!pass"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     []string
	}{
		{
			name:     "valid",
			password: "Abcdef1!",
			want:     nil,
		},
		{
			name:     "too short",
			password: "Ab1!",
			want:     []string{"Password must be at least 8 characters"},
		},
		{
			name:     "missing uppercase",
			password: "abcdef1!",
			want:     []string{"Password must contain at least one uppercase letter"},
		},
		{
			name:     "missing lowercase",
			password: "ABCDEF1!",
			want:     []string{"Password must contain at least one lowercase letter"},
		},
		{
			name:     "missing digit",
			password: "Abcdefg!",
			want:     []string{"Password must contain at least one number"},
		},
		{
			name:     "missing symbol",
			password: "Abcdefg1",
			want:     []string{"Password must contain at least one special character"},
		},
		{
			name:     "symbol outside allowed set does not count",
			password: "Abcdef1-",
			want:     []string{"Password must contain at least one special character"},
		},
		{
			name:     "everything missing",
			password: "",
			want: []string{
				"Password must be at least 8 characters",
				"Password must contain at least one uppercase letter",
				"Password must contain at least one lowercase letter",
				"Password must contain at least one number",
				"Password must contain at least one special character",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePassword(tt.password))
		})
	}
}
