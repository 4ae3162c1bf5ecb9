package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, parseOrigins(" https://a.example, ,https://b.example "))
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		allowed string
		origin  string
		want    bool
	}{
		{"", "https://evil.example", true},
		{"https://app.example", "", true},
		{"https://app.example", "https://app.example", true},
		{"https://app.example", "https://evil.example", false},
		{"*", "https://any.example", true},
	}

	for _, tt := range tests {
		h := NewWSHandler(nil, nil, tt.allowed)
		req := httptest.NewRequest("GET", "/ws/chat", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, h.checkOrigin(req), "allowed=%q origin=%q", tt.allowed, tt.origin)
	}
}
