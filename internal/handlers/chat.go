package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"loomchat/internal/chat"
	"loomchat/internal/store"
)

type ChatHandler struct {
	threads *store.ThreadStore
	engine  *chat.Engine
}

func NewChatHandler(threads *store.ThreadStore, engine *chat.Engine) *ChatHandler {
	return &ChatHandler{threads: threads, engine: engine}
}

type chatRequest struct {
	Message  string `json:"message"`
	SourceID uint   `json:"source_id"`
}

// streamEvent is one SSE frame sent to the client. Tokens arrive with
// done=false; the final frame carries done=true plus the persisted message
// id, or an error when the stream broke.
type streamEvent struct {
	Token     string `json:"token"`
	Done      bool   `json:"done"`
	MessageID uint   `json:"message_id,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Stream runs one generation exchange over SSE.
func (h *ChatHandler) Stream(c *fiber.Ctx) error {
	threadID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return badRequest(c, "Message is required")
	}

	uid := userID(c)
	if _, err := h.threads.Get(c.Context(), uid, threadID); err != nil {
		return storeError(c, err)
	}
	if h.engine.Streaming(threadID) {
		return storeError(c, chat.ErrStreamActive)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	runID := uuid.NewString()
	engine := h.engine

	var writer fasthttp.StreamWriter = func(w *bufio.Writer) {
		// Detached from the request context: the exchange must finish
		// (and persist) even though the handler has returned.
		result, err := engine.Stream(context.Background(), chat.StreamRequest{
			UserID:   uid,
			ThreadID: threadID,
			Message:  req.Message,
			SourceID: req.SourceID,
		}, func(token string) {
			writeEvent(w, streamEvent{Token: token})
		})

		final := streamEvent{Done: true}
		if result != nil {
			final.Cancelled = result.Cancelled
			if result.Assistant != nil {
				final.MessageID = result.Assistant.ID
			}
		}
		if err != nil {
			slog.Error("Generation stream failed", "run_id", runID, "thread_id", threadID, "error", err)
			final.Error = err.Error()
		}
		writeEvent(w, final)
	}
	c.Context().SetBodyStreamWriter(writer)

	return nil
}

// Cancel aborts the live stream of a thread. Partial content already
// generated is preserved.
func (h *ChatHandler) Cancel(c *fiber.Ctx) error {
	threadID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}
	if _, err := h.threads.Get(c.Context(), userID(c), threadID); err != nil {
		return storeError(c, err)
	}

	cancelled := h.engine.Cancel(threadID)
	return c.JSON(fiber.Map{"cancelled": cancelled})
}

func writeEvent(w *bufio.Writer, event streamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	w.Flush()
}
