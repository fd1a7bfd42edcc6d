package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		required Role
		expected bool
	}{
		{"admin over manager", Admin, Manager, true},
		{"manager over keeper", Manager, Keeper, true},
		{"keeper below manager", Keeper, Manager, false},
		{"manager below admin", Manager, Admin, false},
		{"same level", Keeper, Keeper, true},
		{"unknown role", Role("guest"), Keeper, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.HasPermission(tt.required))
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, Admin.IsValid())
	assert.True(t, Keeper.IsValid())
	assert.False(t, Role("moderator").IsValid())
}
