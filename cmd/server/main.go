package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"loomchat/internal/cache"
	"loomchat/internal/chat"
	"loomchat/internal/config"
	"loomchat/internal/database"
	"loomchat/internal/handlers"
	"loomchat/internal/inference"
	"loomchat/internal/routes"
	"loomchat/internal/session"
	"loomchat/internal/store"
)

func main() {
	// JSON structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting loomchat", "version", handlers.Version)

	// ─── Config ──────────────────────────────────────────────────────────
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// ─── Database ────────────────────────────────────────────────────────
	if err := database.Connect(cfg); err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	db := database.DB

	// ─── Stores ──────────────────────────────────────────────────────────
	providerStore := store.NewProviderStore(db)
	sourceStore := store.NewSourceStore(db)
	threadStore := store.NewThreadStore(db)
	messageStore := store.NewMessageStore(db)

	// ─── List cache ──────────────────────────────────────────────────────
	lists := cache.New(cfg.RedisAddr)
	if lists != nil {
		slog.Info("List cache enabled", "addr", cfg.RedisAddr)
	}

	// ─── Generation backend ─────────────────────────────────────────────
	llm := inference.NewClient(cfg.OpenAIBaseURL, cfg.StreamIdleTimeout)
	engine := chat.New(threadStore, sourceStore, providerStore, messageStore, llm)

	// ─── Session state ──────────────────────────────────────────────────
	sessions := session.NewRegistry()

	// ─── Handlers ───────────────────────────────────────────────────────
	authHandler := handlers.NewAuthHandler(cfg, db, sessions)
	providerHandler := handlers.NewProviderHandler(providerStore, lists)
	sourceHandler := handlers.NewSourceHandler(sourceStore, lists)
	threadHandler := handlers.NewThreadHandler(threadStore, lists, sessions)
	sessionHandler := handlers.NewSessionHandler(sessions, threadStore, providerStore, sourceStore)
	messageHandler := handlers.NewMessageHandler(messageStore, engine)
	chatHandler := handlers.NewChatHandler(threadStore, engine)
	wsHandler := handlers.NewWSHandler(threadStore, engine)
	systemHandler := handlers.NewSystemHandler(db)

	// ─── Fiber App ──────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "loomchat v" + handlers.Version,
		ServerHeader: "loomchat",
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: false,
	}))

	// Request logger
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() == "/api/health" || c.Path() == "/metrics" {
			return err
		}
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		)
		return err
	})

	// ─── Routes ─────────────────────────────────────────────────────────
	routes.Setup(app, cfg, authHandler, providerHandler, sourceHandler,
		threadHandler, sessionHandler, messageHandler, chatHandler,
		wsHandler, systemHandler)

	// ─── Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down loomchat...")

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}

		if sqlDB, err := database.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	// ─── Start ──────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.Port
	slog.Info("loomchat listening", "addr", listenAddr)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
