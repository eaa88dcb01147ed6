package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forgefit/fitness-engine/internal/api"
	"forgefit/fitness-engine/internal/config"
	"forgefit/fitness-engine/internal/reasoning"
	"forgefit/fitness-engine/internal/repository/mongo"
	"forgefit/fitness-engine/internal/scheduler"
	"forgefit/fitness-engine/internal/service"
	"forgefit/fitness-engine/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Fitness Engine Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises"))
		mongo.EnsurePlanIndexes(ctx, appDB.Collection("fitness_plans"))
		mongo.EnsureActivityIndexes(ctx, appDB.Collection("activity_logs"))
		mongo.EnsureAdaptationEventIndexes(ctx, appDB.Collection("adaptation_events"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing media storage service...")
	mediaStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	activityRepo := mongo.NewMongoActivityRepository(appDB)
	eventRepo := mongo.NewMongoAdaptationEventRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	library := service.NewExerciseLibrary(exerciseRepo)
	validator := service.NewSafetyValidator()
	generator := service.NewPlanGenerator(library, validator, planRepo, userRepo)
	planService := service.NewPlanService(planRepo, userRepo, activityRepo, generator, validator)

	engineLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// AI reasoning is optional; without it the engine runs rule-only.
	var strategy reasoning.Strategy = reasoning.NoopStrategy{}
	if cfg.AI.Enabled {
		geminiStrategy, err := reasoning.NewGeminiStrategy(context.Background(), engineLogger, reasoning.GeminiConfig{
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize Gemini reasoning: %v", err)
		}
		strategy = geminiStrategy
		log.Printf("AI reasoning enabled with model %s", cfg.AI.Model)
	}

	engine := service.NewAdaptationEngine(
		planRepo, userRepo, activityRepo, eventRepo,
		generator, validator, strategy,
		service.AdaptationEngineConfig{
			BatchSize:  cfg.Scheduler.BatchSize,
			BatchPause: cfg.Scheduler.BatchPause,
		},
		engineLogger,
	)

	// --- Scheduler ---
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	sched := scheduler.New(engine, cfg.Scheduler, engineLogger)
	if err := sched.Start(schedCtx); err != nil {
		log.Fatalf("FATAL: Failed to start adaptation scheduler: %v", err)
	}
	defer sched.Stop()

	// --- Initialize Gin Engine ---
	router := gin.Default()

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, library, planService, engine, activityRepo, eventRepo, mediaStorage)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
