package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wordoff/config"
	"wordoff/internal/cache"
	"wordoff/internal/repository"
	"wordoff/internal/service"
	"wordoff/internal/transport/rest"
	"wordoff/internal/transport/ws"
	"wordoff/internal/words"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env")
	}
	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDatabase)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Word corpus
	wordSource, err := words.NewService(cfg.AnswersFile, cfg.WordsFile)
	if err != nil {
		log.Fatal("Failed to load word lists:", err)
	}

	// WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Repositories and registry
	sessionRepo := repository.NewSessionRepo(db)
	statsRepo := repository.NewStatsRepo(db)
	registry := cache.NewConnectionRegistry(rdb)

	// Services
	retrier := service.NewRetrier(cfg.RetryAttempts, cfg.RetryBackoffMax)
	spectatorAuth := service.NewSpectatorAuth(cfg.JWTSecret)
	gameSvc := service.NewGameService(cfg, sessionRepo, statsRepo, registry, wordSource, spectatorAuth, retrier)
	sweeper := service.NewSweeper(cfg, sessionRepo, statsRepo, registry, wordSource, retrier)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	gameSvc.SetBroadcaster(wsHub)
	sweeper.SetBroadcaster(wsHub)

	// Restart recovery: connections did not survive, give players a
	// grace window to reconnect before the sweep evicts them.
	if err := gameSvc.MarkAllPlayersDisconnected(ctx); err != nil {
		log.Printf("Restart recovery failed: %v", err)
	}

	sweeper.Start()

	// Create router with container
	container := &rest.Container{
		GameService: gameSvc,
		StatsRepo:   statsRepo,
		AdminKey:    cfg.AdminKey,
		WSHandler:   ws.NewHandler(wsHub, gameSvc),
	}
	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  GET /health")
		log.Println("  GET /v1/sessions/{sessionId}")
		log.Println("  GET /v1/admin/sessions")
		log.Println("  GET /v1/admin/stats")
		log.Println("  GET /v1/admin/words")
		log.Println("  WS  /v1/ws")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
