package handlers

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"loomchat/internal/chat"
	"loomchat/internal/store"
)

// WSHandler serves the websocket variant of the token stream for clients
// that prefer a bidirectional transport over SSE.
type WSHandler struct {
	threads *store.ThreadStore
	engine  *chat.Engine
}

func NewWSHandler(threads *store.ThreadStore, engine *chat.Engine) *WSHandler {
	return &WSHandler{threads: threads, engine: engine}
}

// UpgradeCheck is middleware that checks if the request is a websocket upgrade
func (h *WSHandler) UpgradeCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handle accepts one chat request frame, streams token frames back, and
// closes with a final frame mirroring the SSE protocol.
func (h *WSHandler) Handle() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, _ := conn.Locals("user_id").(string)

		threadID, err := parseWSThreadID(conn.Params("id"))
		if err != nil {
			conn.WriteJSON(streamEvent{Done: true, Error: "Invalid thread ID"})
			return
		}

		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil || req.Message == "" {
			conn.WriteJSON(streamEvent{Done: true, Error: "Message is required"})
			return
		}

		result, err := h.engine.Stream(context.Background(), chat.StreamRequest{
			UserID:   uid,
			ThreadID: threadID,
			Message:  req.Message,
			SourceID: req.SourceID,
		}, func(token string) {
			conn.WriteJSON(streamEvent{Token: token})
		})

		final := streamEvent{Done: true}
		if result != nil {
			final.Cancelled = result.Cancelled
			if result.Assistant != nil {
				final.MessageID = result.Assistant.ID
			}
		}
		if err != nil {
			slog.Error("Websocket stream failed", "thread_id", threadID, "error", err)
			final.Error = err.Error()
		}
		conn.WriteJSON(final)
	})
}

func parseWSThreadID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
