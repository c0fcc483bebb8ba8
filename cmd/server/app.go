package main

import (
	"errors"
	"strings"

	"restoran-analytics/internal/audit"
	"restoran-analytics/internal/auth"
	"restoran-analytics/internal/blocking"
	"restoran-analytics/internal/config"
	"restoran-analytics/internal/dashboard"
	"restoran-analytics/internal/metrics"
	"restoran-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func errorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var e *fiber.Error
		if errors.As(err, &e) {
			return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
		}
		log.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).WithError(err).Error("unexpected error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unexpected server error",
		})
	}
}

func newApp(cfg *config.Config, log logrus.FieldLogger, dash *dashboard.Service, blocks *blocking.Service) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "restoran-analytics",
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg.Auth))

	// Protected
	protected := api.Group("", auth.JWTMiddleware(cfg.Auth.JWTSecret))
	protected.Get("/auth/me", auth.MeHandler())

	// Analytics
	reports := protected.Group("/analytics")
	reports.Get("/report", dashboard.ReportHandler(dash))
	reports.Get("/live", dashboard.GetLiveHandler(dash))
	reports.Put("/live", dashboard.PutLiveHandler(dash))
	reports.Get("/export", auth.RequireRole(models.RoleSuperAdmin, models.RoleAdmin), dashboard.ExportHandler(dash))

	// Admin
	admin := protected.Group("/admin", auth.RequireRole(models.RoleSuperAdmin, models.RoleAdmin))
	admin.Get("/phone-blocks", blocking.ListHandler(blocks))
	admin.Get("/phone-blocks/check", blocking.CheckHandler(blocks))
	admin.Post("/phone-blocks", blocking.CreateHandler(blocks))
	admin.Delete("/phone-blocks/:id", blocking.DeleteHandler(blocks))
	admin.Get("/audit-logs", auth.RequireRole(models.RoleSuperAdmin), audit.ListAuditLogsHandler())

	return app
}
