package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	cats, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		return writeError(c, "categories.list", err)
	}
	return c.JSON(cats)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON body")
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return badRequest(c, "name", "name must be 1-40 characters")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	cat, err := h.Catalog.CreateCategory(ctx, name)
	if err != nil {
		return writeError(c, "categories.create", err)
	}
	log.Audit(c, "category.create", map[string]any{"category_id": cat.ID})
	return c.Status(fiber.StatusCreated).JSON(cat)
}
