package service

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"runtime"
)

// MachineFingerprint derives a short identifier for the host the server
// runs on, shown in the admin stats view. Best effort only.
func MachineFingerprint() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	sum := md5.Sum([]byte(hostname + runtime.GOOS + runtime.GOARCH))
	return hex.EncodeToString(sum[:])[:16]
}
