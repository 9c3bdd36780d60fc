package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"loomchat/internal/cache"
	"loomchat/internal/models"
	"loomchat/internal/store"
)

const cacheEntityProviders = "providers"

type ProviderHandler struct {
	providers *store.ProviderStore
	lists     *cache.Lists
}

func NewProviderHandler(providers *store.ProviderStore, lists *cache.Lists) *ProviderHandler {
	return &ProviderHandler{providers: providers, lists: lists}
}

func (h *ProviderHandler) List(c *fiber.Ctx) error {
	uid := userID(c)

	var providers []models.InferenceProvider
	if !h.lists.Get(c.Context(), uid, cacheEntityProviders, &providers) {
		var err error
		providers, err = h.providers.List(c.Context(), uid)
		if err != nil {
			return storeError(c, err)
		}
		h.lists.Set(c.Context(), uid, cacheEntityProviders, providers)
	}

	return c.JSON(fiber.Map{"providers": providers})
}

func (h *ProviderHandler) Create(c *fiber.Ctx) error {
	var req struct {
		ProviderName string `json:"provider_name"`
		AccountName  string `json:"account_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	uid := userID(c)
	provider, err := h.providers.Create(c.Context(), uid, req.ProviderName, req.AccountName)
	if err != nil {
		return storeError(c, err)
	}
	h.lists.Invalidate(c.Context(), uid, cacheEntityProviders)

	return c.Status(fiber.StatusCreated).JSON(provider)
}

func (h *ProviderHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid provider ID")
	}

	uid := userID(c)
	if err := h.providers.Delete(c.Context(), uid, id); err != nil {
		return storeError(c, err)
	}
	h.lists.Invalidate(c.Context(), uid, cacheEntityProviders)

	return c.JSON(fiber.Map{"message": "Provider deleted"})
}

func (h *ProviderHandler) Credentials(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid provider ID")
	}

	creds, err := h.providers.Credentials(c.Context(), userID(c), id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"credentials": creds})
}

// UpsertCredential routes to the explicit insert or update store operation.
// A request carrying an id updates that credential in place; otherwise a new
// credential is inserted on the provider.
func (h *ProviderHandler) UpsertCredential(c *fiber.Ctx) error {
	var req struct {
		ID                  uint   `json:"id"`
		InferenceProviderID uint   `json:"inference_provider_id"`
		CredentialKey       string `json:"credential_key"`
		CredentialValue     string `json:"credential_value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var (
		cred *models.InferenceProviderCredential
		err  error
	)
	if req.ID != 0 {
		cred, err = h.providers.UpdateCredential(c.Context(), userID(c), req.ID, req.CredentialKey, req.CredentialValue)
	} else {
		cred, err = h.providers.InsertCredential(c.Context(), userID(c), req.InferenceProviderID, req.CredentialKey, req.CredentialValue)
	}
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(cred)
}

func (h *ProviderHandler) SetSelected(c *fiber.Ctx) error {
	var req struct {
		ID uint `json:"id"`
	}
	if err := c.BodyParser(&req); err != nil || req.ID == 0 {
		return badRequest(c, "Provider ID is required")
	}

	setting, err := h.providers.SetSelected(c.Context(), userID(c), req.ID)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(setting)
}

func (h *ProviderHandler) Selected(c *fiber.Ctx) error {
	provider, err := h.providers.Selected(c.Context(), userID(c))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"provider": provider})
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
