package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loomchat/internal/config"
	"loomchat/internal/handlers"
	"loomchat/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	providerHandler *handlers.ProviderHandler,
	sourceHandler *handlers.SourceHandler,
	threadHandler *handlers.ThreadHandler,
	sessionHandler *handlers.SessionHandler,
	messageHandler *handlers.MessageHandler,
	chatHandler *handlers.ChatHandler,
	wsHandler *handlers.WSHandler,
	systemHandler *handlers.SystemHandler,
) {
	// ─── Public ──────────────────────────────────────────────────────────
	app.Get("/api/health", systemHandler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ─── Auth ────────────────────────────────────────────────────────────
	app.Post("/api/auth/register", authHandler.Register)
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/refresh", authHandler.Refresh)

	// ─── Protected routes ────────────────────────────────────────────────
	api := app.Group("/api", middleware.JWTProtected(cfg.JWTSecret))

	// Auth (protected)
	api.Get("/auth/me", authHandler.Me)
	api.Post("/auth/logout", authHandler.Logout)

	// Providers
	api.Get("/providers", providerHandler.List)
	api.Post("/providers", providerHandler.Create)
	api.Get("/providers/selected", providerHandler.Selected)
	api.Put("/providers/selected", providerHandler.SetSelected)
	api.Put("/providers/credentials", providerHandler.UpsertCredential)
	api.Get("/providers/:id/credentials", providerHandler.Credentials)
	api.Delete("/providers/:id", providerHandler.Delete)

	// Sources
	api.Get("/sources", sourceHandler.List)
	api.Post("/sources", sourceHandler.Create)
	api.Put("/sources/:id", sourceHandler.Update)
	api.Delete("/sources/:id", sourceHandler.Delete)

	// Threads & transcripts
	api.Get("/threads", threadHandler.List)
	api.Post("/threads", threadHandler.Create)
	api.Get("/threads/:id", threadHandler.Get)
	api.Get("/threads/:id/messages", messageHandler.Transcript)
	api.Get("/threads/:id/messages/user", messageHandler.UserMessages)
	api.Get("/threads/:id/messages/inference", messageHandler.InferenceMessages)

	// Chat streaming
	api.Post("/threads/:id/chat", chatHandler.Stream)
	api.Post("/threads/:id/chat/cancel", chatHandler.Cancel)
	api.Use("/threads/:id/chat/ws", wsHandler.UpgradeCheck())
	api.Get("/threads/:id/chat/ws", wsHandler.Handle())

	// Session selection state
	api.Get("/session", sessionHandler.Get)
	api.Put("/session/active-thread", sessionHandler.SetActiveThread)
	api.Put("/session/active-provider", sessionHandler.SetActiveProvider)
	api.Put("/session/active-source", sessionHandler.SetActiveSource)
}
