package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// List serves GET /products?category=&size=.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var f domain.ProductFilter
	if q := c.Query("category"); q != "" {
		id, ok := validate.ID(q)
		if !ok {
			return badRequest(c, "category", "invalid category")
		}
		f.CategoryID = id
	}
	if q := c.Query("size"); q != "" {
		size, ok := validate.Size(q)
		if !ok {
			return badRequest(c, "size", "invalid size")
		}
		f.Size = size
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	products, err := h.Catalog.ListProducts(ctx, f)
	if err != nil {
		return writeError(c, "products.list", err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return fail(c, fiber.StatusNotFound, "not_found", "resource not found")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Catalog.GetProduct(ctx, id, false)
	if err != nil {
		return writeError(c, "products.get", err)
	}
	return c.JSON(p)
}

type productReq struct {
	CategoryID  *string          `json:"categoryId"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	BasePrice   *decimal.Decimal `json:"basePrice"`
	IsActive    *bool            `json:"isActive"`

	// create only
	SKU    *string  `json:"sku"`
	Images []string `json:"images"`
}

// patch validates whichever fields are present.
func (r productReq) patch() (domain.ProductPatch, *fieldError) {
	var p domain.ProductPatch
	if r.CategoryID != nil {
		id, ok := validate.ID(*r.CategoryID)
		if !ok {
			return p, &fieldError{"categoryId", "invalid categoryId"}
		}
		p.CategoryID = &id
	}
	if r.Name != nil {
		name, ok := validate.Title(*r.Name, 120)
		if !ok {
			return p, &fieldError{"name", "name must be 1-120 characters"}
		}
		p.Name = &name
	}
	if r.Description != nil {
		if len(*r.Description) > 2000 {
			return p, &fieldError{"description", "description is too long"}
		}
		p.Description = r.Description
	}
	if r.BasePrice != nil {
		if !validate.Price(*r.BasePrice) {
			return p, &fieldError{"basePrice", "basePrice must be a non-negative amount"}
		}
		p.BasePrice = r.BasePrice
	}
	p.Active = r.IsActive
	return p, nil
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req productReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON body")
	}
	if req.CategoryID == nil || req.Name == nil || req.BasePrice == nil {
		return badRequest(c, "body", "categoryId, name and basePrice are required")
	}
	p, ferr := req.patch()
	if ferr != nil {
		return badRequest(c, ferr.field, ferr.msg)
	}
	in := services.NewProduct{CategoryID: *p.CategoryID, Name: *p.Name, BasePrice: *p.BasePrice, Active: true}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Active != nil {
		in.Active = *p.Active
	}
	if req.SKU != nil {
		sku, ok := validate.SKU(*req.SKU)
		if !ok {
			return badRequest(c, "sku", "sku must be 1-40 letters, digits, dots, dashes or underscores")
		}
		in.SKU = &sku
	}
	if len(req.Images) > 10 {
		return badRequest(c, "images", "at most 10 images")
	}
	for _, raw := range req.Images {
		u, ok := validate.ImageURL(raw)
		if !ok {
			return badRequest(c, "images", "images must be absolute http(s) URLs")
		}
		in.ImageURLs = append(in.ImageURLs, u)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	prod, err := h.Catalog.CreateProduct(ctx, in)
	if err != nil {
		return writeError(c, "products.create", err)
	}
	log.Audit(c, "product.create", map[string]any{"product_id": prod.ID})
	return c.Status(fiber.StatusCreated).JSON(prod)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "not_found", "resource not found")
	}
	var req productReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON body")
	}
	p, ferr := req.patch()
	if ferr != nil {
		return badRequest(c, ferr.field, ferr.msg)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	prod, err := h.Catalog.UpdateProduct(ctx, id, p)
	if err != nil {
		return writeError(c, "products.update", err)
	}
	log.Audit(c, "product.update", map[string]any{"product_id": id})
	return c.JSON(prod)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "not_found", "resource not found")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Catalog.DeleteProduct(ctx, id); err != nil {
		return writeError(c, "products.delete", err)
	}
	log.Audit(c, "product.delete", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"deleted": id})
}

// AddVariant serves POST /products/:id/variants.
func (h *ProductHandler) AddVariant(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "not_found", "resource not found")
	}
	var req struct {
		Size          string           `json:"size"`
		StockQuantity int              `json:"stockQuantity"`
		Price         *decimal.Decimal `json:"price"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON body")
	}
	size, ok := validate.Size(req.Size)
	if !ok {
		return badRequest(c, "size", "size must be 1-8 letters or digits")
	}
	if !validate.Stock(req.StockQuantity) {
		return badRequest(c, "stockQuantity", "stockQuantity must be zero or more")
	}
	if req.Price != nil && !validate.Price(*req.Price) {
		return badRequest(c, "price", "price must be a non-negative amount")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Catalog.AddVariant(ctx, id, size, req.StockQuantity, req.Price)
	if err != nil {
		return writeError(c, "variants.create", err)
	}
	log.Audit(c, "variant.create", map[string]any{"product_id": id, "variant_id": v.ID})
	return c.Status(fiber.StatusCreated).JSON(v)
}

// AddImage serves POST /products/:id/images.
func (h *ProductHandler) AddImage(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "not_found", "resource not found")
	}
	var req struct {
		URL       string `json:"url"`
		SortOrder int    `json:"sortOrder"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON body")
	}
	u, ok := validate.ImageURL(req.URL)
	if !ok {
		return badRequest(c, "url", "url must be an absolute http(s) URL")
	}
	if req.SortOrder < 0 || req.SortOrder > 1000 {
		return badRequest(c, "sortOrder", "sortOrder must be between 0 and 1000")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	img, err := h.Catalog.AddImage(ctx, id, u, req.SortOrder)
	if err != nil {
		return writeError(c, "products.image", err)
	}
	log.Audit(c, "product.image.add", map[string]any{"product_id": id, "image_id": img.ID})
	return c.Status(fiber.StatusCreated).JSON(img)
}

// SetStock serves PUT /variants/:id/stock with an absolute level.
func (h *ProductHandler) SetStock(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "not_found", "resource not found")
	}
	var req struct {
		StockQuantity *int `json:"stockQuantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON body")
	}
	if req.StockQuantity == nil || !validate.Stock(*req.StockQuantity) {
		return badRequest(c, "stockQuantity", "stockQuantity must be zero or more")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Catalog.SetStock(ctx, id, *req.StockQuantity)
	if err != nil {
		return writeError(c, "variants.stock", err)
	}
	log.Audit(c, "inventory.set", map[string]any{"variant_id": id, "qty": v.StockQuantity})
	return c.JSON(v)
}
