package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loomchat/internal/cache"
	"loomchat/internal/models"
	"loomchat/internal/store"
)

const cacheEntitySources = "sources"

type SourceHandler struct {
	sources *store.SourceStore
	lists   *cache.Lists
}

func NewSourceHandler(sources *store.SourceStore, lists *cache.Lists) *SourceHandler {
	return &SourceHandler{sources: sources, lists: lists}
}

func (h *SourceHandler) List(c *fiber.Ctx) error {
	uid := userID(c)

	var sources []models.InferenceSource
	if !h.lists.Get(c.Context(), uid, cacheEntitySources, &sources) {
		var err error
		sources, err = h.sources.List(c.Context(), uid)
		if err != nil {
			return storeError(c, err)
		}
		h.lists.Set(c.Context(), uid, cacheEntitySources, sources)
	}

	return c.JSON(fiber.Map{"sources": sources})
}

func (h *SourceHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		ProviderID uint   `json:"provider_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	uid := userID(c)
	source, err := h.sources.Create(c.Context(), uid, req.ProviderID, req.Name, req.Type)
	if err != nil {
		return storeError(c, err)
	}
	h.lists.Invalidate(c.Context(), uid, cacheEntitySources)

	return c.Status(fiber.StatusCreated).JSON(source)
}

func (h *SourceHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid source ID")
	}

	var req struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		ProviderID uint   `json:"provider_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	uid := userID(c)
	source, err := h.sources.Update(c.Context(), uid, id, req.ProviderID, req.Name, req.Type)
	if err != nil {
		return storeError(c, err)
	}
	h.lists.Invalidate(c.Context(), uid, cacheEntitySources)

	return c.JSON(source)
}

func (h *SourceHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid source ID")
	}

	uid := userID(c)
	if err := h.sources.Delete(c.Context(), uid, id); err != nil {
		return storeError(c, err)
	}
	h.lists.Invalidate(c.Context(), uid, cacheEntitySources)

	return c.JSON(fiber.Map{"message": "Source deleted"})
}
