package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayush-sharaf/pollproject-backend/internal/config"
	"github.com/ayush-sharaf/pollproject-backend/internal/database"
	"github.com/ayush-sharaf/pollproject-backend/internal/discord"
	"github.com/ayush-sharaf/pollproject-backend/internal/handler"
	"github.com/ayush-sharaf/pollproject-backend/internal/middleware"
	"github.com/ayush-sharaf/pollproject-backend/internal/repository"
	"github.com/ayush-sharaf/pollproject-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// historyStore is what the server needs from either backend.
type historyStore interface {
	service.HistoryStore
	handler.Pinger
}

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// History store
	store, closeStore, err := openHistory(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open history store: %v", err)
	}
	defer closeStore()

	// Services
	wsHub := service.NewWSHub()
	classroom := service.NewClassroom(wsHub, store, service.ClassroomConfig{
		DefaultTimeLimit: cfg.DefaultTimeLimit,
		StoreTimeout:     cfg.StoreTimeout,
	})

	announcer, err := discord.NewAnnouncer(cfg.DiscordToken, cfg.DiscordChannelID)
	if err != nil {
		log.Printf("[discord] announcer disabled: %v", err)
	}
	if announcer != nil {
		classroom.OnPollEnded(announcer.PollEnded)
	}
	if webhook := discord.NewWebhookNotifier(cfg.DiscordWebhook); webhook != nil {
		classroom.OnPollEnded(webhook.PollEnded)
	}

	app := newApp(cfg, store, classroom, wsHub)

	// Poll timer
	go classroom.RunTimer(ctx, cfg.TickInterval)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("Poll backend running on :%s (%s, %s history)", cfg.Port, cfg.Env, cfg.DatabaseType)

	<-ctx.Done()
	log.Println("Shutting down...")
	wsHub.Shutdown()
	_ = app.ShutdownWithTimeout(5 * time.Second)
	log.Println("Server stopped")
}

func newApp(cfg *config.Config, store historyStore, classroom *service.Classroom, wsHub *service.WSHub) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.AllowedOrigin))

	// Health
	healthH := handler.NewHealthHandler(store)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	v1 := app.Group("/api/v1")

	// Poll (read-only)
	pollH := handler.NewPollHandler(classroom)
	v1.Get("/poll/current", pollH.GetCurrent)
	v1.Get("/poll/results", pollH.GetResults)
	v1.Get("/poll/history", middleware.RateLimit(30, time.Minute), pollH.GetHistory)

	// Admin
	adminH := handler.NewAdminHandler(classroom, wsHub)
	v1.Get("/admin/stats", middleware.AdminKey(cfg.AdminKey), adminH.Stats)

	// WebSocket
	wsH := handler.NewWSHandler(wsHub, classroom, cfg.AllowedOrigin)
	app.Get("/ws", wsH.Upgrade)

	return app
}

func openHistory(ctx context.Context, cfg *config.Config) (historyStore, func(), error) {
	if cfg.UseSQLite() {
		db, err := database.OpenSQLite(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Println("SQLite history ready")
		return repository.NewSQLiteHistoryRepository(db), func() { db.Close() }, nil
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Println("Migrations applied successfully")
	return repository.NewPollHistoryRepository(pool), pool.Close, nil
}
