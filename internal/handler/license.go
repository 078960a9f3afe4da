package handler

import (
	"errors"
	"log"
	"strings"

	"license-auth-api/internal/service"
	"license-auth-api/internal/stats"

	"github.com/gofiber/fiber/v2"
)

type LicenseHandler struct {
	service *service.LicenseService
	stats   *stats.Stats
	sheets  *service.SheetSyncService
}

func NewLicenseHandler(svc *service.LicenseService, st *stats.Stats, sheets *service.SheetSyncService) *LicenseHandler {
	return &LicenseHandler{service: svc, stats: st, sheets: sheets}
}

type VerifyInput struct {
	Key  string `json:"key"`
	Hwid string `json:"hwid"`
}

// HandleVerify is the public verification endpoint called by the
// licensed software on startup.
func (h *LicenseHandler) HandleVerify(c *fiber.Ctx) error {
	input := new(VerifyInput)
	if err := c.BodyParser(input); err != nil || input.Key == "" || input.Hwid == "" {
		h.stats.RecordRequest(stats.KindGeneral)
		h.stats.RecordError()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields",
		})
	}

	vctx := service.VerifyContext{
		IPAddress: clientIP(c),
		UserAgent: userAgent(c),
	}

	result, err := h.service.Verify(input.Key, input.Hwid, vctx)
	if err != nil {
		h.stats.RecordRequest(stats.KindGeneral)
		h.stats.RecordError()
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Key not found",
			})
		case errors.Is(err, service.ErrExpired):
			return c.Status(fiber.StatusGone).JSON(fiber.Map{
				"error": "License expired",
			})
		case errors.Is(err, service.ErrHwidMismatch):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "HWID mismatch",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}
	}

	h.stats.RecordRequest(stats.KindVerify)
	return c.JSON(fiber.Map{
		"valid":      true,
		"expires_at": result.ExpiresAt,
		"plan":       result.Plan,
	})
}

type GenerateInput struct {
	ExpiresAt *string `json:"expires_at"`
	Hwid      *string `json:"hwid"`
	Plan      string  `json:"plan"`
}

// HandleGenerate issues a new license. Both expires_at and hwid must be
// present; hwid may be empty, which leaves the license unbound.
func (h *LicenseHandler) HandleGenerate(c *fiber.Ctx) error {
	input := new(GenerateInput)
	if err := c.BodyParser(input); err != nil || input.ExpiresAt == nil || input.Hwid == nil {
		h.stats.RecordError()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields",
		})
	}

	license, err := h.service.Issue(*input.ExpiresAt, *input.Hwid, input.Plan)
	if err != nil {
		h.stats.RecordError()
		if errors.Is(err, service.ErrInvalidDate) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid date format. Use YYYY-MM-DD",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate license",
		})
	}

	if h.sheets != nil {
		lic := *license
		go func() {
			if err := h.sheets.SyncLicense(&lic); err != nil {
				log.Printf("sheet sync failed: %v", err)
			}
		}()
	}

	return c.JSON(fiber.Map{
		"key":        license.Key,
		"expires_at": license.ExpiresAt,
	})
}

type KeyInput struct {
	Key string `json:"key"`
}

// HandleDelete revokes a license and cascades its usage history.
func (h *LicenseHandler) HandleDelete(c *fiber.Ctx) error {
	input := new(KeyInput)
	if err := c.BodyParser(input); err != nil || input.Key == "" {
		h.stats.RecordError()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing license key",
		})
	}

	if err := h.service.Delete(input.Key); err != nil {
		h.stats.RecordError()
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "License key not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	if h.sheets != nil {
		key := input.Key
		go func() {
			if err := h.sheets.MarkDeleted(key); err != nil {
				log.Printf("sheet sync failed: %v", err)
			}
		}()
	}

	return c.JSON(fiber.Map{
		"message": "successfully deleted",
	})
}

// HandleResetHwid clears a license's device binding so the next
// verification can rebind it.
func (h *LicenseHandler) HandleResetHwid(c *fiber.Ctx) error {
	input := new(KeyInput)
	if err := c.BodyParser(input); err != nil || input.Key == "" {
		h.stats.RecordError()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing license key",
		})
	}

	if err := h.service.ResetBinding(input.Key); err != nil {
		h.stats.RecordError()
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "License key not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"hwid": nil,
	})
}

// HandleKeyInfo reports the aggregate usage for a key. A key that has
// never been verified yields an explicit no-data message, not a 404.
func (h *LicenseHandler) HandleKeyInfo(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" {
		h.stats.RecordError()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing license key parameter",
		})
	}

	summary, err := h.service.Inspect(key)
	if err != nil {
		h.stats.RecordError()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
	if summary == nil {
		return c.JSON(fiber.Map{
			"message": "no key info",
		})
	}

	return c.JSON(summary)
}

// clientIP honors X-Forwarded-For so usage rows record the original
// caller when the service sits behind a proxy.
func clientIP(c *fiber.Ctx) string {
	if fwd := c.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return c.IP()
}

func userAgent(c *fiber.Ctx) string {
	if ua := c.Get("User-Agent"); ua != "" {
		return ua
	}
	return "Unknown"
}
