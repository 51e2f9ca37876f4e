package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursetaker-backend/internal/config"
	"coursetaker-backend/internal/database"
	"coursetaker-backend/internal/handlers"
	"coursetaker-backend/internal/middleware"
	"coursetaker-backend/internal/repository"
	"coursetaker-backend/internal/router"
	"coursetaker-backend/internal/segmenter"
	"coursetaker-backend/internal/services"
	"coursetaker-backend/internal/websocket"
	"coursetaker-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Course Taker Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)

	// ──── Step 5: Initialize YouTube Metadata Provider ────
	youtubeService, err := services.NewYouTubeService(cfg.YouTubeAPIKey)
	if err != nil {
		log.Fatalf("✗ YouTube client initialization failed: %v", err)
	}
	if cfg.YouTubeAPIKey != "" {
		log.Println("✓ YouTube Data API client initialized")
	} else {
		log.Println("✓ YouTube player client initialized (no API key, keyless mode)")
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClients.Tokens, jwtAuth)
	segmenterService := segmenter.NewService(youtubeService)

	// ──── Step 6: Start Debounced Note Saver ────
	noteSaver := worker.NewSegmentSaver(courseRepo, time.Duration(cfg.NoteSaveDebounceMS)*time.Millisecond)
	noteSaver.Start()
	log.Printf("✓ Note saver started (%dms debounce)", cfg.NoteSaveDebounceMS)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	courseHandler := handlers.NewCourseHandler(segmenterService, courseRepo, noteSaver, wsHub)

	// ──── Step 8: Start HTTP Server ────
	r := router.New(jwtAuth, authHandler, courseHandler, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		noteSaver.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Course Taker Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
