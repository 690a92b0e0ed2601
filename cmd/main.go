package main

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"storyreel/internal/config"
	"storyreel/internal/core/assets"
	"storyreel/internal/core/job"
	"storyreel/internal/core/narration"
	"storyreel/internal/core/render"
	"storyreel/internal/core/video"
	"storyreel/internal/logger"
	rds "storyreel/internal/platform/redis"
	"storyreel/internal/platform/storage"
	tasks "storyreel/internal/platform/tasks"
	"storyreel/internal/server"
	"storyreel/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log.Printf("[storyreel] starting at %s (env=%s)\n", cfg.HTTPAddr, cfg.AppEnv)

	logr := logger.New("main")

	// Redis client
	redisSvc, err := rds.New(rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisSvc.Close()

	// Asynq client and server. Concurrency bounds the number of transcoder
	// subprocesses running at once.
	taskClient := tasks.New(redisSvc)
	asynqServer := asynq.NewServer(redisSvc.AsynqRedisOpt(), asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{"default": 1},
	})

	// Core services
	jobSvc := job.NewService(job.NewRedisStore(redisSvc))
	assetSvc := assets.New(cfg)
	narrationSvc := narration.New(cfg)
	executor := render.NewExecutor(cfg)
	storageSvc, err := storage.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	videoSvc := video.NewService(cfg, jobSvc, taskClient, assetSvc, narrationSvc, executor, storageSvc)

	// Worker mux
	mux := worker.NewMux()
	mux.HandleFunc(video.TaskTypeGenerate, videoSvc.HandleTask)

	go func() {
		if err := asynqServer.Start(mux.Mux()); err != nil {
			log.Printf("[worker] stopped: %v\n", err)
		}
	}()

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName: "Storyreel Engine",
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})
	app.Use(cors.New())
	// Serve finished videos and cached assets from DATA_DIR under /files
	app.Static("/files", cfg.DataDir)

	deps := server.Dependencies{
		Config: cfg,
		Job:    jobSvc,
		Video:  videoSvc,
		Redis:  redisSvc,
	}
	healthHandler := server.RegisterRoutes(app, deps)

	// Mark application as ready after all services are initialized
	go func() {
		time.Sleep(2 * time.Second)
		healthHandler.SetReady()
	}()

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logr.LogInfo("Shutting down...")
		asynqServer.Shutdown()
		_ = taskClient.Close()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("server listen: %v", err)
	}
}
