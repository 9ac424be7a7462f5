package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kitchenbook/internal/api"
	"kitchenbook/internal/importer"
	"kitchenbook/internal/mealplan"
	"kitchenbook/internal/platform/gemini"
	"kitchenbook/internal/platform/localcache"
	"kitchenbook/internal/platform/pdftext"
	"kitchenbook/internal/recipe"
	"kitchenbook/internal/shopping"
)

// Config represents the application configuration.
type Config struct {
	GeminiAPIKey string `json:"gemini_api_key"`
	DatabaseURL  string `json:"DATABASE_URL"`
	CacheDir     string `json:"cache_dir"`
	ListenAddr   string `json:"listen_addr"`
}

func main() {
	ctx := context.Background()

	// Read configuration from config.json
	configData, err := os.ReadFile("config.json")
	if err != nil {
		panic(fmt.Errorf("failed to read config.json: %w", err))
	}

	var config Config
	if err := json.Unmarshal(configData, &config); err != nil {
		panic(fmt.Errorf("failed to unmarshal config.json: %w", err))
	}
	if config.CacheDir == "" {
		config.CacheDir = "cache"
	}
	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}

	logger, err := buildLogger()
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}
	defer logger.Sync()
	log := logger.Sugar()

	geminiClient, err := gemini.NewClient(ctx, config.GeminiAPIKey)
	if err != nil {
		panic(fmt.Errorf("error creating gemini client: %w", err))
	}

	cache, err := localcache.New(config.CacheDir)
	if err != nil {
		panic(fmt.Errorf("error creating local cache: %w", err))
	}

	recipeStore, err := recipe.NewPostgresStore(config.DatabaseURL)
	if err != nil {
		panic(fmt.Errorf("error creating recipe store: %w", err))
	}
	planStore, err := mealplan.NewPostgresStore(config.DatabaseURL)
	if err != nil {
		panic(fmt.Errorf("error creating meal plan store: %w", err))
	}

	recipeService := recipe.NewService(recipeStore, cache, log)
	shoppingService := shopping.NewService(cache, log)
	planService := mealplan.NewService(planStore, recipeService, shoppingService, cache, log)
	importService := importer.NewService(pdftext.Extractor{}, geminiClient, log)

	handler := api.NewHandler(recipeService, shoppingService, planService, importService)

	r := gin.Default()

	// Configure CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8081"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler.RegisterRoutes(r)

	log.Infow("server starting", "addr", config.ListenAddr)
	if err := r.Run(config.ListenAddr); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

func buildLogger() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
