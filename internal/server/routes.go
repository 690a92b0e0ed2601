package server

import (
	"storyreel/internal/config"
	"storyreel/internal/core/job"
	"storyreel/internal/core/video"
	"storyreel/internal/health"
	"storyreel/internal/platform/redis"

	"github.com/gofiber/fiber/v2"
)

type Dependencies struct {
	Config config.Config
	Job    *job.Service
	Video  *video.Service
	Redis  *redis.Service
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	// Health endpoints
	healthHandler := health.NewHealthHandler(d.Config, d.Redis)
	app.Get("/v1/health", health.HealthLimiter(), healthHandler.HandleHealth)

	api := app.Group("/v1")

	videoHandler := video.NewHandler(d.Job, d.Video)
	api.Post("/videos", videoHandler.HandleCreate)
	api.Get("/videos/:jobId", videoHandler.HandleStatus)
	api.Get("/videos/:jobId/file", videoHandler.HandleFile)

	return healthHandler
}
