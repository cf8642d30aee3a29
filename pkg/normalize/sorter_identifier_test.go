package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+13175551234", "3175551234"},
		{"3175551234", "3175551234"},
		{"(317) 555-1234", "3175551234"},
		{"+1 (317) 555-1234", "3175551234"},
		{"+447700900123", "447700900123"},
		{"87892", "87892"},
		{"Friend@Example.COM", "friend@example.com"},
		{"urn:biz:ABC", "urn:biz:abc"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Identifier(tt.in))
		})
	}
}

func TestIdentifier_Idempotent(t *testing.T) {
	inputs := []string{
		"+13175551234", "13175551234", "1-317-555-1234", "+44 7700 900123",
		"a.B@c.D", "urn:biz:Store", "p:+15551234567", "", "12345",
	}
	for _, in := range inputs {
		once := Identifier(in)
		assert.Equal(t, once, Identifier(once), "input %q", in)
	}
}

func TestIsShortCode(t *testing.T) {
	assert.True(t, IsShortCode("87892"))
	assert.True(t, IsShortCode("262966"))
	assert.False(t, IsShortCode("3175551234"))
	assert.False(t, IsShortCode("1234"))
	assert.False(t, IsShortCode("12345@example.com"))
	assert.False(t, IsShortCode("12345@x.com"))
	assert.False(t, IsShortCode("123456@X.COM"))
}
