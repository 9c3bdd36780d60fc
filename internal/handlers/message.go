package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loomchat/internal/chat"
	"loomchat/internal/store"
	"loomchat/internal/transcript"
)

type MessageHandler struct {
	messages *store.MessageStore
	engine   *chat.Engine
}

func NewMessageHandler(messages *store.MessageStore, engine *chat.Engine) *MessageHandler {
	return &MessageHandler{messages: messages, engine: engine}
}

// Transcript returns the merged, ordered transcript of a thread, including
// the in-flight partial message when a stream is live.
func (h *MessageHandler) Transcript(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}
	uid := userID(c)

	userMsgs, err := h.messages.UserMessages(c.Context(), uid, id)
	if err != nil {
		return storeError(c, err)
	}
	infMsgs, err := h.messages.InferenceMessages(c.Context(), uid, id)
	if err != nil {
		return storeError(c, err)
	}

	entries := transcript.Merge(userMsgs, infMsgs, h.engine.Partial(id))
	return c.JSON(fiber.Map{
		"messages":  entries,
		"streaming": h.engine.Streaming(id),
	})
}

// UserMessages returns the raw persisted user-message list; clients use it
// to reconcile optimistic state after a stream.
func (h *MessageHandler) UserMessages(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	messages, err := h.messages.UserMessages(c.Context(), userID(c), id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func (h *MessageHandler) InferenceMessages(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	messages, err := h.messages.InferenceMessages(c.Context(), userID(c), id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}
