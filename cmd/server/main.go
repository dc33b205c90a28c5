package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/chivescore/api/internal/client"
	"github.com/chivescore/api/internal/config"
	"github.com/chivescore/api/internal/handler"
	"github.com/chivescore/api/internal/middleware"
	"github.com/chivescore/api/internal/queue"
	"github.com/chivescore/api/internal/service"
	"github.com/chivescore/api/internal/store"
	"github.com/chivescore/api/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize validator
	validate := validator.New()

	// Initialize vision client
	visionClient := client.NewVisionClient(&cfg.Vision)
	if !visionClient.IsConfigured() {
		log.Println("Info: vision service not configured, worker will use mock metrics")
	}

	// Initialize R2 client (optional - continues if not configured)
	var mediaClient client.StorageClient
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Printf("Warning: R2 client not initialized: %v", err)
		} else {
			mediaClient = r2Client
		}
	} else {
		log.Println("Info: R2 storage not configured, using mock storage")
	}

	// Initialize store and queue
	resultStore := store.NewResultStore(redisClient, time.Duration(cfg.Jobs.TTL)*time.Second)
	jobQueue := queue.NewJobQueue(redisClient, time.Duration(cfg.Jobs.VisibilityTimeout)*time.Second)

	// Initialize services
	submissionService := service.NewSubmissionService(resultStore, jobQueue, mediaClient)
	statusService := service.NewStatusService(resultStore)
	resultPoller := service.NewResultPoller(
		statusService,
		time.Duration(cfg.Poller.Interval)*time.Second,
		cfg.Poller.MaxAttempts,
	)

	// Initialize handlers and middleware
	analysisHandler := handler.NewAnalysisHandler(submissionService, statusService, resultPoller, validate)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"vision": visionClient.IsConfigured(),
				"r2":     mediaClient != nil,
				"redis":  redisClient.Ping(c.Context()).Err() == nil,
			},
		})
	})

	// API routes
	chives := app.Group("/api/chives")
	chives.Post("/submit", rateLimiter.SubmitLimit(cfg.RateLimit.SubmitPerHour), analysisHandler.Submit)
	chives.Get("/status/:jobId", analysisHandler.Status)
	chives.Get("/wait/:jobId", analysisHandler.Wait)

	// Start worker and reaper
	workerCtx, stopWorker := context.WithCancel(context.Background())
	analysisWorker := worker.NewAnalysisWorker(
		jobQueue,
		resultStore,
		visionClient,
		mediaClient,
		time.Duration(cfg.Jobs.PopTimeout)*time.Second,
		time.Duration(cfg.Jobs.Backoff)*time.Second,
	)
	go analysisWorker.Run(workerCtx)

	reaper := queue.NewReaper(jobQueue, time.Duration(cfg.Jobs.ReaperInterval)*time.Second)
	go reaper.Run(workerCtx)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		stopWorker()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
