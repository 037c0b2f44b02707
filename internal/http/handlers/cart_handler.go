package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CartHandler struct {
	Cart  *services.CartService
	Order *services.OrderService
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	id, _ := identity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	cv, err := h.Cart.View(ctx, id.UserID)
	if err != nil {
		return writeError(c, "cart.view", err)
	}
	return c.JSON(cv)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req struct {
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON body")
	}
	variantID, ok := validate.ID(req.VariantID)
	if !ok {
		return badRequest(c, "variantId", "invalid variantId")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if !validate.Qty(req.Quantity) {
		return badRequest(c, "quantity", "quantity must be between 1 and 50")
	}

	id, _ := identity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	cv, err := h.Cart.Add(ctx, id.UserID, variantID, req.Quantity)
	if err != nil {
		return writeError(c, "cart.add", err)
	}
	log.Info(c, "cart.add", map[string]any{"variant_id": variantID, "qty": req.Quantity})
	return c.JSON(cv)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	variantID, ok := validate.ID(c.Params("variantId"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "not_found", "resource not found")
	}
	id, _ := identity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	cv, err := h.Cart.Remove(ctx, id.UserID, variantID)
	if err != nil {
		return writeError(c, "cart.remove", err)
	}
	return c.JSON(cv)
}

// Checkout turns the caller's cart into an order.
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	var req orderDetailsReq
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "body", "malformed JSON body")
		}
	}
	d, ferr := req.details()
	if ferr != nil {
		return badRequest(c, ferr.field, ferr.msg)
	}

	id, _ := identity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Order.Checkout(ctx, id.UserID, d)
	if err != nil {
		log.Security(c, "order.place.fail", map[string]any{"source": "cart", "error": err.Error()})
		return writeError(c, "order.checkout", err)
	}
	log.Audit(c, "order.place", map[string]any{"order_id": o.ID, "total": o.TotalAmount.String(), "source": "cart"})
	return c.Status(fiber.StatusCreated).JSON(o)
}
