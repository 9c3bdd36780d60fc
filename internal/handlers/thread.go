package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loomchat/internal/cache"
	"loomchat/internal/models"
	"loomchat/internal/session"
	"loomchat/internal/store"
)

const cacheEntityThreads = "threads"

type ThreadHandler struct {
	threads  *store.ThreadStore
	lists    *cache.Lists
	sessions *session.Registry
}

func NewThreadHandler(threads *store.ThreadStore, lists *cache.Lists, sessions *session.Registry) *ThreadHandler {
	return &ThreadHandler{threads: threads, lists: lists, sessions: sessions}
}

func (h *ThreadHandler) List(c *fiber.Ctx) error {
	uid := userID(c)

	var threads []models.Thread
	if !h.lists.Get(c.Context(), uid, cacheEntityThreads, &threads) {
		var err error
		threads, err = h.threads.List(c.Context(), uid)
		if err != nil {
			return storeError(c, err)
		}
		h.lists.Set(c.Context(), uid, cacheEntityThreads, threads)
	}

	return c.JSON(fiber.Map{"threads": threads})
}

func (h *ThreadHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	thread, err := h.threads.Get(c.Context(), userID(c), id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(thread)
}

func (h *ThreadHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	uid := userID(c)
	thread, err := h.threads.Create(c.Context(), uid, req.Title)
	if err != nil {
		return storeError(c, err)
	}
	h.lists.Invalidate(c.Context(), uid, cacheEntityThreads)

	return c.Status(fiber.StatusCreated).JSON(thread)
}

// ─── Session selection state ────────────────────────────────────────────────

type SessionHandler struct {
	sessions  *session.Registry
	threads   *store.ThreadStore
	providers *store.ProviderStore
	sources   *store.SourceStore
}

func NewSessionHandler(sessions *session.Registry, threads *store.ThreadStore, providers *store.ProviderStore, sources *store.SourceStore) *SessionHandler {
	return &SessionHandler{sessions: sessions, threads: threads, providers: providers, sources: sources}
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.sessions.Get(userID(c)))
}

func (h *SessionHandler) SetActiveThread(c *fiber.Ctx) error {
	var req struct {
		ID uint `json:"id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	uid := userID(c)
	if req.ID != 0 {
		if _, err := h.threads.Get(c.Context(), uid, req.ID); err != nil {
			return storeError(c, err)
		}
	}
	h.sessions.SetActiveThread(uid, req.ID)
	return c.JSON(h.sessions.Get(uid))
}

func (h *SessionHandler) SetActiveProvider(c *fiber.Ctx) error {
	var req struct {
		ID uint `json:"id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	uid := userID(c)
	if req.ID != 0 {
		if _, err := h.providers.Get(c.Context(), uid, req.ID); err != nil {
			return storeError(c, err)
		}
	}
	h.sessions.SetActiveProvider(uid, req.ID)
	return c.JSON(h.sessions.Get(uid))
}

func (h *SessionHandler) SetActiveSource(c *fiber.Ctx) error {
	var req struct {
		ID uint `json:"id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	uid := userID(c)
	if req.ID != 0 {
		if _, err := h.sources.Get(c.Context(), uid, req.ID); err != nil {
			return storeError(c, err)
		}
	}
	h.sessions.SetActiveSource(uid, req.ID)
	return c.JSON(h.sessions.Get(uid))
}
