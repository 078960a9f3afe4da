package util

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// GenerateLicenseKey produces a key like LIC-<22 URL-safe chars> backed
// by 128 bits from the OS CSPRNG. Keys are never derived from time or
// counters.
func GenerateLicenseKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return "LIC-" + strings.ToUpper(base64.RawURLEncoding.EncodeToString(b)), nil
}

// GenerateAdminKey produces the process-lifetime admin bearer secret:
// 256 random bits, URL-safe encoded.
func GenerateAdminKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
