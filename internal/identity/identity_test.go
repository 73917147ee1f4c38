package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"BEARER   abc  ", "abc"},
		{"abc", "abc"},
		{"Bearer ", ""},
		{"", ""},
		{"Basic dXNlcjpwYXNz", "Basic dXNlcjpwYXNz"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BearerToken(tt.header), "header %q", tt.header)
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	_, ok = FromContext(WithIdentity(context.Background(), nil))
	assert.False(t, ok)

	id := &Identity{UserID: "u1", Email: "u1@example.com"}
	got, ok := FromContext(WithIdentity(context.Background(), id))
	assert.True(t, ok)
	assert.Same(t, id, got)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleUser))
	assert.False(t, ValidRole("Admin"))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("superuser"))
}

func TestSameUser(t *testing.T) {
	const id = "7b4f1c2e-9a3d-4e8b-b1f0-2c6d5e4a3b21"
	tests := []struct {
		a, b string
		want bool
	}{
		{id, id, true},
		{id, strings.ToUpper(id), true},
		{id, " " + id + " ", true},
		{id, "{" + id + "}", true},
		{id, "8b4f1c2e-9a3d-4e8b-b1f0-2c6d5e4a3b21", false},
		{"admin-1", "admin-1", true},
		{"admin-1", "ADMIN-1", false},
		{id, "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SameUser(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}
