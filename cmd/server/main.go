package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkells/robot-orchestra/internal/api"
	"github.com/mkells/robot-orchestra/internal/config"
	"github.com/mkells/robot-orchestra/internal/dispatch"
	"github.com/mkells/robot-orchestra/internal/prompt"
	"github.com/mkells/robot-orchestra/internal/provider"
	"github.com/mkells/robot-orchestra/internal/repository/postgres"
	"github.com/mkells/robot-orchestra/internal/service"
	"github.com/mkells/robot-orchestra/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	// Initialize WebSocket hub
	hub := websocket.NewHub(repos.Match, repos.Session)
	go hub.Run()

	// Response and prompt providers. Without a Gemini key, robots speak from
	// the canned pool and prompts come from the static rotation.
	pool := prompt.NewPool(time.Now().UnixNano())
	var responses provider.Provider
	var prompts prompt.Provider
	if cfg.GeminiAPIKey != "" {
		gemini, err := provider.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("failed to initialize gemini provider: %v", err)
		}
		responses = gemini
		prompts = gemini
		log.Println("Using Gemini response provider")
	} else {
		responses = provider.NewStatic()
		prompts = pool
		log.Println("GEMINI_API_KEY not set, using static response provider")
	}

	// AI fan-out worker pool
	dispatcher := dispatch.NewDispatcher(responses, dispatch.RetryPolicy{
		MaxAttempts: cfg.AIMaxAttempts,
		BaseDelay:   cfg.AIRetryBaseDelay,
		MaxJitter:   cfg.AIRetryMaxJitter,
	}, cfg.AIWorkerCount)

	// Initialize services
	services := service.NewServices(repos, prompts, pool, dispatcher, hub, cfg)
	dispatcher.Start(services.Round)

	tokens := service.NewTokenService(cfg.TokenSecret, cfg.TokenLifetime)

	// Initialize router
	router := api.NewRouter(services, tokens, hub)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	dispatcher.Stop()
	services.Round.Close()
	hub.Stop()

	log.Println("Server stopped")
}
