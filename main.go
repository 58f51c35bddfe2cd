package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LonleySailor/zkpaste/internal/chat"
	"github.com/LonleySailor/zkpaste/internal/config"
	"github.com/LonleySailor/zkpaste/internal/httpapi"
	"github.com/LonleySailor/zkpaste/internal/paste"
	"github.com/LonleySailor/zkpaste/internal/pow"
	"github.com/LonleySailor/zkpaste/internal/ratelimit"
	"github.com/LonleySailor/zkpaste/internal/storage"
	"github.com/LonleySailor/zkpaste/pkg/validation"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	log.Printf("Starting zkpaste server...")
	log.Printf("Environment: %s", cfg.Environment)
	log.Printf("Port: %s", cfg.Port)
	log.Printf("Database: %s", cfg.Storage.Path)

	if tuning, err := config.LoadTuningOverrides(os.Getenv("TUNING_PATH")); err != nil {
		log.Fatalf("tuning overrides: %v", err)
	} else {
		tuning.Apply(cfg)
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()

	pastes := paste.New(store, cfg.Paste.IDLength, cfg.DeletionToken.Pepper)
	chatSvc := chat.New(store, cfg.Chat.MaxMessagesPerPaste)
	powSvc := pow.New(cfg.Pow.Enabled, cfg.Pow.Difficulty, int64(cfg.Pow.TTLSeconds))
	limiter := ratelimit.New(cfg.RateLimit.Enabled, cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerMinute)
	validator := validation.New(cfg.Paste.MaxSizeBytes, cfg.Paste.MaxExpirationSeconds, cfg.Chat.MaxMessageSizeBytes)

	server := httpapi.NewServer(cfg, store, pastes, chatSvc, powSvc, limiter, validator)
	router := httpapi.NewRouter(server)

	reaper := paste.NewReaper(store, time.Duration(cfg.ReaperIntervalSeconds)*time.Second)
	reaper.Start()
	defer reaper.Stop()

	stopLimiterCleanup := make(chan struct{})
	go limiter.Run(10*time.Minute, stopLimiterCleanup)
	defer close(stopLimiterCleanup)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("Health check available at: http://localhost:%s/api/health", cfg.Port)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}

	log.Println("Server stopped")
}
