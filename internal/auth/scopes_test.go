package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScopes(t *testing.T) {
	assert.Equal(t, []string{"read", "write"}, ParseScopes("  read write read "))
	assert.Empty(t, ParseScopes(""))
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name      string
		requested []string
		allowed   []string
		want      []string
	}{
		{"subset", []string{"read", "write"}, []string{"read"}, []string{"read"}},
		{"all", []string{"write", "read"}, []string{"read", "write"}, []string{"write", "read"}},
		{"disjoint", []string{"admin"}, []string{"read"}, []string{}},
		{"nothing requested", nil, []string{"read"}, []string{}},
		{"duplicates", []string{"read", "read"}, []string{"read"}, []string{"read"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Intersect(tt.requested, tt.allowed))
		})
	}
}

func TestMissing(t *testing.T) {
	assert.Empty(t, Missing(nil, nil))
	assert.Empty(t, Missing([]string{"read"}, []string{"read", "write"}))
	assert.Equal(t, []string{"write"}, Missing([]string{"read", "write"}, []string{"read"}))
}
