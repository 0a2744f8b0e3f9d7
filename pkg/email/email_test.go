package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		" Chef@Example.COM ": "Chef@example.com",
		"no-at-sign":         "no-at-sign",
		"@example.com":       "@example.com",
		"a@b@Example.Org":    "a@b@example.org",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestLocalPart(t *testing.T) {
	assert.Equal(t, "chef", LocalPart("chef@example.com"))
	assert.Equal(t, "plain", LocalPart("plain"))
}
