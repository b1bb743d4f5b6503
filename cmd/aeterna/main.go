// Aeterna serves the HTTP/WebSocket API for the multi-tenant memory
// and knowledge infrastructure: token budget tracking, hierarchical
// context compression, the memory-knowledge sync bridge, the
// build/test/improve meta-agent loop, the unified graph store, the
// Cedar policy conflict analyzer, the approval workflow, and note
// lifecycle/retrieval.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/gin-gonic/gin"

	"github.com/kikokikok/aeterna-sub003/pkg/config"
	"github.com/kikokikok/aeterna-sub003/pkg/database"
	"github.com/kikokikok/aeterna-sub003/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	ginMode := getEnv("GIN_MODE", "debug")
	gin.SetMode(ginMode)

	log.Printf("Starting %s", version.Full())
	log.Printf("HTTP Port: %s", httpPort)
	log.Printf("Config Directory: %s", *configDir)

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}
	log.Printf("Configured tenants: %d", cfg.Stats().Tenants)

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbClient.Close()
	log.Println("Connected to PostgreSQL database")
	log.Println("Database schema migrated")

	rt, err := NewRuntime(ctx, cfg, dbClient)
	if err != nil {
		log.Fatalf("Failed to build tenant runtimes: %v", err)
	}
	log.Printf("Tenant runtimes built: %d", len(rt.Tenants))

	router := gin.Default()
	registerRoutes(router, dbClient, rt)

	log.Printf("HTTP server listening on :%s", httpPort)
	log.Printf("Health check available at: http://localhost:%s/health", httpPort)
	if err := router.Run(":" + httpPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
