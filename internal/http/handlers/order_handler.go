package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/auth"
	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type OrderHandler struct {
	Order  *services.OrderService
	Policy auth.Policy
}

type orderDetailsReq struct {
	ShippingAddress string `json:"shippingAddress"`
	BillingAddress  string `json:"billingAddress"`
	PaymentMethod   string `json:"paymentMethod"`
}

func (r orderDetailsReq) details() (services.OrderDetails, *fieldError) {
	ship, ok := validate.Address(r.ShippingAddress)
	if !ok {
		return services.OrderDetails{}, &fieldError{"shippingAddress", "shippingAddress is too long"}
	}
	bill, ok := validate.Address(r.BillingAddress)
	if !ok {
		return services.OrderDetails{}, &fieldError{"billingAddress", "billingAddress is too long"}
	}
	if bill == "" {
		bill = ship
	}
	pm, ok := validate.PaymentMethod(r.PaymentMethod)
	if !ok {
		return services.OrderDetails{}, &fieldError{"paymentMethod", "unsupported paymentMethod"}
	}
	return services.OrderDetails{ShippingAddress: ship, BillingAddress: bill, PaymentMethod: pm}, nil
}

// placeReq has no price fields; anything a client sends for them is dropped by the decoder.
type placeReq struct {
	Items []struct {
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
	orderDetailsReq
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var req placeReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON body")
	}
	if len(req.Items) == 0 {
		return badRequest(c, "items", "items must contain at least one line")
	}
	if len(req.Items) > 100 {
		return badRequest(c, "items", "too many lines")
	}
	lines := make([]services.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		vid, ok := validate.ID(it.VariantID)
		if !ok {
			return badRequest(c, "variantId", "invalid variantId")
		}
		if !validate.Qty(it.Quantity) {
			return badRequest(c, "quantity", "quantity must be between 1 and 50")
		}
		lines = append(lines, services.OrderLine{VariantID: vid, Quantity: it.Quantity})
	}
	d, ferr := req.details()
	if ferr != nil {
		return badRequest(c, ferr.field, ferr.msg)
	}

	id, _ := identity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Order.PlaceOrder(ctx, services.PlaceOrderInput{UserID: id.UserID, Lines: lines, OrderDetails: d})
	if err != nil {
		applog.Security(c, "order.place.fail", map[string]any{"error": err.Error()})
		return writeError(c, "order.place", err)
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID,
		"total":    o.TotalAmount.String(),
		"lines":    len(o.Items),
	})
	return c.Status(fiber.StatusCreated).JSON(o)
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	id, _ := identity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	orders, err := h.Order.List(ctx, id, h.Policy.Allows(id.Role, auth.PermReadOrders))
	if err != nil {
		return writeError(c, "orders.list", err)
	}
	return c.JSON(orders)
}

// Get answers 404 for orders the caller may not see, same as for missing ones.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "not_found", "resource not found")
	}
	id, _ := identity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Order.Get(ctx, oid, id, h.Policy.Allows(id.Role, auth.PermReadOrders))
	if err != nil {
		return writeError(c, "orders.get", err)
	}
	return c.JSON(o)
}

// Update serves PUT /orders/:id {status, paymentStatus}.
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "not_found", "resource not found")
	}
	var req struct {
		Status        *string `json:"status"`
		PaymentStatus *string `json:"paymentStatus"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON body")
	}
	var upd domain.StatusUpdate
	if req.Status != nil {
		st, ok := domain.ParseOrderStatus(*req.Status)
		if !ok {
			return badRequest(c, "status", "unknown status")
		}
		upd.Status = &st
	}
	if req.PaymentStatus != nil {
		ps, ok := domain.ParsePaymentStatus(*req.PaymentStatus)
		if !ok {
			return badRequest(c, "paymentStatus", "unknown paymentStatus")
		}
		upd.PaymentStatus = &ps
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Order.UpdateStatus(ctx, oid, upd)
	if err != nil {
		return writeError(c, "orders.update", err)
	}
	applog.Audit(c, "order.status", map[string]any{
		"order_id": oid, "status": string(o.Status), "payment_status": string(o.PaymentStatus),
	})
	return c.JSON(o)
}
