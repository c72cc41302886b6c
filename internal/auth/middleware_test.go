package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"empty header", "", "", false},
		{"no scheme", "abc.def.ghi", "", false},
		{"wrong scheme", "Basic abc", "", false},
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"case insensitive scheme", "bearer abc.def.ghi", "abc.def.ghi", true},
		{"empty token", "Bearer ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.NoError(t, ComparePassword(hash, "password123"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}
