package util

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateLicenseKeyFormat(t *testing.T) {
	keyPattern := regexp.MustCompile(`^LIC-[A-Z0-9_-]{22}$`)

	key, err := GenerateLicenseKey()
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "LIC-"))
	assert.Regexp(t, keyPattern, key)
}

func TestGenerateLicenseKeyUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key, err := GenerateLicenseKey()
		assert.NoError(t, err)
		assert.False(t, seen[key], "duplicate key generated: %s", key)
		seen[key] = true
	}
}

func TestGenerateAdminKey(t *testing.T) {
	a, err := GenerateAdminKey()
	assert.NoError(t, err)
	b, err := GenerateAdminKey()
	assert.NoError(t, err)

	// 32 bytes raw-url encoded.
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}
