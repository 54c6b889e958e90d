package main

import (
	"fmt"
	"log"
	"os"

	"github.com/allergyscan/backend/config"
	httpDelivery "github.com/allergyscan/backend/internal/delivery/http"
	"github.com/allergyscan/backend/internal/infrastructure/off"
	"github.com/allergyscan/backend/internal/infrastructure/store"
	"github.com/allergyscan/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting AllergyScan Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache path: %s (TTL: %s)", cfg.Cache.Path, cfg.Cache.TTL)

	// Initialize infrastructure dependencies
	productStore, err := store.NewBoltStore(cfg.Cache.Path)
	if err != nil {
		log.Fatalf("Failed to open product cache: %v", err)
	}
	defer productStore.Close()

	offClient := off.NewClient(cfg.OFF.BaseURL)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		offClient.SetDebug(true)
		log.Printf("OFF client debug mode enabled")
	}
	log.Printf("OFF API configured: %s", cfg.OFF.BaseURL)

	// Load the allergen lexicon once at startup
	lexicon, err := usecase.LoadLexicon()
	if err != nil {
		log.Fatalf("Failed to load allergen lexicon: %v", err)
	}
	log.Printf("Allergen lexicon loaded (version %d)", lexicon.Version())

	// Initialize usecase layer
	detector := usecase.NewDetector(lexicon, usecase.DetectorConfig{
		FuzzyThreshold:     cfg.Matching.FuzzyThreshold,
		MayContainWindow:   cfg.Matching.MayContainWindow,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})

	productService := usecase.NewProductService(productStore, offClient, usecase.ProductServiceConfig{
		TTL:                    cfg.Cache.TTL,
		FetchTimeout:           cfg.Cache.FetchTimeout,
		ServeStaleWhileRefresh: cfg.Cache.ServeStaleWhileRefresh,
		EnableDebugLogging:     cfg.Matching.EnableDebugLogging,
	})

	scanService := usecase.NewScanService(productService, detector)

	log.Printf("Matching: fuzzy_threshold=%.2f, may_contain_window=%d, debug=%v",
		cfg.Matching.FuzzyThreshold,
		cfg.Matching.MayContainWindow,
		cfg.Matching.EnableDebugLogging)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(scanService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
