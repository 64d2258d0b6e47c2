package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"castor/internal/config"
	"castor/internal/database"
	"castor/internal/handlers"
	"castor/internal/jobs"
	"castor/internal/logging"
	"castor/internal/middleware"
	"castor/internal/services"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logging.Init()

	cfg := config.Load()

	if cfg.Environment == "production" && cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET must be set in production")
	}
	if cfg.MongoURI == "" {
		log.Fatal("❌ MONGODB_URI must be set")
	}

	// Database
	db, err := database.NewMongoDB(cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Initialize(ctx); err != nil {
		cancel()
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	cancel()
	log.Printf("✅ Connected to MongoDB (%s)", cfg.MongoDBName)

	// Redis is optional. Without it the daily usage limiter fails open.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = services.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, usage limits disabled: %v", err)
			redisClient = nil
		} else {
			log.Println("✅ Connected to Redis")
		}
	} else {
		log.Println("⚠️ REDIS_URL not set, usage limits disabled")
	}

	// Model settings with hot reload
	modelSettings, err := config.LoadModelSettings(cfg.ModelSettingsPath)
	if err != nil {
		log.Printf("⚠️ Failed to load %s, using default model settings: %v", cfg.ModelSettingsPath, err)
		modelSettings = config.DefaultModelSettings()
	}
	settingsStore := services.NewModelSettingsStore(modelSettings)
	go watchModelSettings(cfg.ModelSettingsPath, settingsStore)

	// Services
	services.InitMetrics()
	llmClient := services.NewLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, settingsStore)
	neynarClient := services.NewNeynarClient(cfg.NeynarBaseURL, cfg.NeynarAPIKey)
	registry := services.NewLanguageRegistry()
	promptBuilder := services.NewPromptBuilder(registry)

	profileRepo := database.NewMongoProfileRepository(db)
	contextRepo := database.NewMongoAccountContextRepository(db)

	profileService := services.NewProfileService(
		profileRepo,
		neynarClient,
		llmClient,
		settingsStore,
		cfg.ProfileMaxAge(),
		cfg.AnalysisMaxPromptChars,
	)
	generationService := services.NewGenerationService(llmClient, promptBuilder, settingsStore)
	translationService := services.NewTranslationService(llmClient, registry, settingsStore)
	brandValidator := services.NewBrandValidator(llmClient, settingsStore)
	accountContextService := services.NewAccountContextService(contextRepo, cfg.ContextCacheTTL)
	usageLimiter := services.NewUsageLimiterService(redisClient, cfg.DailySuggestionLimit)

	// Handlers
	suggestionHandler := handlers.NewSuggestionHandler(
		profileService,
		generationService,
		translationService,
		brandValidator,
		accountContextService,
		usageLimiter,
		320,
	)
	healthHandler := handlers.NewHealthHandler(db)

	// Background jobs
	jobScheduler, err := jobs.NewScheduler(profileService)
	if err != nil {
		log.Fatalf("❌ Failed to create job scheduler: %v", err)
	}
	jobScheduler.Start()

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Castor v1.0",
		ReadTimeout:  180 * time.Second,
		WriteTimeout: 180 * time.Second, // translation of long posts can take a while
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("castor")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️ ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Routes
	app.Get("/health", healthHandler.Check)

	api := app.Group("/api/v1", middleware.JWTAuth(cfg.JWTSecret))
	api.Post("/suggestions", suggestionHandler.GenerateSuggestions)
	api.Post("/translate", suggestionHandler.Translate)
	api.Post("/validate", suggestionHandler.ValidateBrand)
	api.Get("/profile", suggestionHandler.GetProfile)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		jobScheduler.Stop()

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := db.Close(shutdownCtx); err != nil {
			log.Printf("⚠️ Error closing MongoDB: %v", err)
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Printf("⚠️ Error closing Redis: %v", err)
			}
		}
	}()

	log.Printf("🚀 Castor listening on :%s (%s)", cfg.Port, cfg.Environment)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// watchModelSettings hot-reloads model ids when the settings file changes.
// Watches the containing directory because editors replace files on save.
func watchModelSettings(filePath string, store *services.ModelSettingsStore) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️ Failed to create file watcher: %v", err)
		return
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		log.Printf("⚠️ Failed to resolve path %s: %v", filePath, err)
		watcher.Close()
		return
	}

	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️ Failed to watch directory %s: %v", dir, err)
		watcher.Close()
		return
	}

	log.Printf("👁️ Watching %s for changes (hot-reload enabled)", filePath)

	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					settings, err := config.LoadModelSettings(filePath)
					if err != nil {
						log.Printf("❌ Failed to reload model settings: %v", err)
						return
					}
					store.Set(settings)
					log.Printf("✅ Model settings reloaded from %s", filePath)
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️ File watcher error: %v", err)
		}
	}
}
