package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"podforge/config"
	"podforge/handlers"
	"podforge/logger"
	"podforge/media"
	"podforge/scripts"
	"podforge/services/podcast"
	"podforge/services/script"
	"podforge/services/sources"
	"podforge/services/speech"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logConfig, err := logger.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger := logger.NewAppLogger(cfg.Debug)

	scriptRunner, err := scripts.NewRunner(scripts.Config{
		PythonPath:  cfg.Pipeline.PythonPath,
		ScriptsPath: cfg.Pipeline.ScriptsPath,
		Timeout:     cfg.Pipeline.ProcessTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize script runner: %v", err)
	}

	resolver := sources.NewResolver(sources.Config{
		DefaultManVideoURL:   cfg.Pipeline.DefaultManVideoURL,
		DefaultWomanVideoURL: cfg.Pipeline.DefaultWomanVideoURL,
		WorkDir:              cfg.WorkDir,
	}, appLogger)

	composer := script.NewComposer(scriptRunner, appLogger)
	generator := script.NewClient(cfg.Pipeline.ModelName, appLogger)
	synthesizer := speech.NewClient(speech.Config{
		RequestsPerSecond: cfg.Pipeline.SynthesisRate,
	})
	engine := media.NewEngine(cfg.Pipeline.FFmpegPath, cfg.Pipeline.FFprobePath)

	podcastService := podcast.NewService(
		resolver,
		composer,
		generator,
		synthesizer,
		engine,
		podcast.Config{
			WorkDir:         cfg.WorkDir,
			OutputDir:       cfg.OutputDir,
			OutputRetention: cfg.Pipeline.OutputRetention,
		},
		appLogger,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		BodyLimit:             cfg.MaxUploadSize,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: !cfg.Debug,
		AppName:               "podforge " + cfg.Version,
	})

	setupMiddleware(app, cfg, logConfig)

	podcastHandler := handlers.NewPodcastHandler(podcastService, cfg.UploadDir, appLogger)

	app.Post("/generate-podcast", podcastHandler.Generate)
	app.Get("/health", handlers.HealthCheck)

	// Finished podcasts are served read-only until their retention window
	// expires.
	app.Static("/downloads", cfg.OutputDir)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	serverAddr := ":" + cfg.ServerPort
	if cfg.Debug {
		log.Printf("Server starting on http://localhost%s", serverAddr)
	}

	if err := app.Listen(serverAddr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func setupMiddleware(app *fiber.App, cfg *config.Config, logConfig *fiberLogger.Config) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.New().String()
		},
	}))

	app.Use(fiberLogger.New(*logConfig))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	if cfg.RateLimit.Enabled {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.RequestsPerMinute,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Rate limit exceeded",
				})
			},
		}))
	}
}
