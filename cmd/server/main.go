package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/oleh-kl/TrainerAppBack/internal/config"
	"github.com/oleh-kl/TrainerAppBack/internal/database"
	"github.com/oleh-kl/TrainerAppBack/internal/routes"
	"github.com/oleh-kl/TrainerAppBack/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log := logger.New()
	if cfg.AppEnv == "development" {
		log = logger.NewDevelopment()
	}
	defer log.Sync()

	if cfg.DBUrl == "" {
		log.Fatalw("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatalw("Failed to connect to database", "error", err)
	}
	defer database.CloseDB()

	app := fiber.New()

	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	routes.RegisterRoutes(app, cfg, database.DB, log)

	log.Infow("Server starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalw("Server failed to start", "error", err)
	}
}
