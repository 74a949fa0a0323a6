package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "Alice Smith", want: "AS"},
		{name: "alice", want: "A"},
		{name: "Alice Mary Smith", want: "AM"},
		{name: "  ", want: ""},
		{name: "สมชาย ใจดี", want: "สใ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, initials(tt.name))
		})
	}
}
