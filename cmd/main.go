package main

import (
	"log"

	"license-auth-api/internal/config"
	"license-auth-api/internal/database"
	"license-auth-api/internal/handler"
	"license-auth-api/internal/middleware"
	"license-auth-api/internal/repository"
	"license-auth-api/internal/service"
	"license-auth-api/internal/stats"
	"license-auth-api/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config failed:", err)
	}

	database.InitDB(cfg.DBPath)

	// Fresh secret every start; the admin reads it off the log.
	adminKey, err := util.GenerateAdminKey()
	if err != nil {
		log.Fatal("generate admin key failed:", err)
	}
	log.Printf("admin key: %s (send as Authorization: Bearer <key>)", adminKey)

	apiStats := stats.New()
	repo := repository.NewGormLicenseRepository(database.DB)
	geo := service.NewGeoResolver(cfg.GeoEndpoint)
	licenseService := service.NewLicenseService(repo, geo)

	sheetSync, err := service.NewSheetSyncService(
		cfg.SheetSyncEnabled, cfg.SheetCredentialPath, cfg.SpreadsheetID, cfg.SheetName)
	if err != nil {
		log.Fatal("init sheet sync failed:", err)
	}

	h := handler.NewLicenseHandler(licenseService, apiStats, sheetSync)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			apiStats.RecordError()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	// Public verification endpoint.
	app.Post("/verify", h.HandleVerify)

	// Admin routes behind the shared-secret check.
	admin := app.Group("/api", middleware.AdminAuth(adminKey, apiStats))
	admin.Post("/generate", h.HandleGenerate)
	admin.Delete("/delete", h.HandleDelete)
	admin.Patch("/resethwid", h.HandleResetHwid)
	admin.Get("/keyinfo", h.HandleKeyInfo)
	admin.Get("/stats", h.HandleStats)

	log.Fatal(app.Listen(cfg.ListenAddr))
}
