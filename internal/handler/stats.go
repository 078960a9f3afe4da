package handler

import (
	"runtime"
	"time"

	"license-auth-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// HandleStats reports the process counters plus host information for the
// admin's operational view.
func (h *LicenseHandler) HandleStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"system": fiber.Map{
			"os":          runtime.GOOS,
			"arch":        runtime.GOARCH,
			"fingerprint": service.MachineFingerprint(),
			"started":     h.stats.StartTime().Format(time.RFC3339),
		},
		"stats": h.stats.Snapshot(),
	})
}
