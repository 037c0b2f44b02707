package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/auth"
	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type UserHandler struct {
	Users  *services.UserService
	Policy auth.Policy
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return writeError(c, "users.list", err)
	}
	return c.JSON(users)
}

// target resolves :id and reports whether the caller is an administrator.
// Non-admins may only address themselves.
func (h *UserHandler) target(c *fiber.Ctx) (uid string, admin bool, err error) {
	uid, ok := validate.ID(c.Params("id"))
	if !ok {
		return "", false, domain.ErrNotFound
	}
	me, _ := identity(c)
	admin = h.Policy.Allows(me.Role, auth.PermUsers)
	if !admin && uid != me.UserID {
		return "", false, domain.ErrForbidden
	}
	return uid, admin, nil
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	uid, _, err := h.target(c)
	if err != nil {
		return writeError(c, "users.get", err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Get(ctx, uid)
	if err != nil {
		return writeError(c, "users.get", err)
	}
	return c.JSON(u)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	uid, admin, err := h.target(c)
	if err != nil {
		return writeError(c, "users.update", err)
	}
	var req struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		Role      *string `json:"role"`
		IsActive  *bool   `json:"isActive"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON body")
	}
	var p domain.UserPatch
	if req.FirstName != nil {
		v, ok := validate.Name(*req.FirstName)
		if !ok {
			return badRequest(c, "firstName", "first name must be 1-40 characters")
		}
		p.FirstName = &v
	}
	if req.LastName != nil {
		v, ok := validate.Name(*req.LastName)
		if !ok {
			return badRequest(c, "lastName", "last name must be 1-40 characters")
		}
		p.LastName = &v
	}
	if req.Role != nil {
		r, ok := domain.ParseRole(*req.Role)
		if !ok {
			return badRequest(c, "role", "unknown role")
		}
		p.Role = &r
	}
	p.Active = req.IsActive

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Update(ctx, uid, p, admin)
	if err != nil {
		return writeError(c, "users.update", err)
	}
	if p.Role != nil || p.Active != nil {
		applog.Audit(c, "user.update.privileged", map[string]any{"target": uid, "role": string(u.Role), "active": u.Active})
	}
	return c.JSON(u)
}

func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	uid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "not_found", "resource not found")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.Deactivate(ctx, uid); err != nil {
		return writeError(c, "users.deactivate", err)
	}
	applog.Audit(c, "user.deactivate", map[string]any{"target": uid})
	return c.JSON(fiber.Map{"deactivated": uid})
}
